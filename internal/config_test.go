package internal

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func validEnv() env.EnvSet {
	return env.EnvSet{
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"ADMINS":             "42, 43,42,,",
		"DISCORD_BOT_TOKEN":  "discord-token",
		"DISCORD_CHANNEL_ID": "1122334455",
	}
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var cfg Config
	req.NoError(env.Unmarshal(validEnv(), &cfg))
	req.NoError(cfg.Validate())

	req.Equal("https://api.telegram.org", cfg.TelegramAPIURL)
	req.Equal("https://discord.com/api/v10", cfg.DiscordAPIURL)
	req.Equal("channels.json", cfg.ChannelsFile)
	req.Equal("keywords.json", cfg.KeywordsFile)
	req.Equal(30*time.Second, cfg.TelegramPollTimeout)
	req.Equal(8, cfg.MaxInflightDeliveries)
	req.Empty(cfg.MetricsAddr)
	req.Equal([]string{"42", "43"}, cfg.AdminIDs())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
	}{
		{name: "Channel id must be numeric", override: map[string]string{"DISCORD_CHANNEL_ID": "general"}},
		{name: "Admins must not be blank", override: map[string]string{"ADMINS": " , ,"}},
		{name: "Metrics address must be host:port", override: map[string]string{"METRICS_ADDR": "metrics"}},
		{name: "Buffer must hold one event", override: map[string]string{"EVENT_BUFFER_SIZE": "0"}},
		{name: "Api url must be a url", override: map[string]string{"TELEGRAM_API_URL": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			es := validEnv()
			for k, v := range tt.override {
				es[k] = v
			}
			var cfg Config
			req.NoError(env.Unmarshal(es, &cfg))
			req.ErrorIs(cfg.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestConfig_MetricsAddress(t *testing.T) {
	req := require.New(t)
	es := validEnv()
	es["METRICS_ADDR"] = ":9090"
	var cfg Config
	req.NoError(env.Unmarshal(es, &cfg))
	req.NoError(cfg.Validate())
}

func TestConfig_MissingToken(t *testing.T) {
	req := require.New(t)
	es := validEnv()
	delete(es, "TELEGRAM_BOT_TOKEN")
	var cfg Config
	req.Error(env.Unmarshal(es, &cfg))
}
