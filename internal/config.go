package internal

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type Config struct {
	TelegramBotToken      string        `env:"TELEGRAM_BOT_TOKEN,required=true" validate:"required"`
	TelegramAPIURL        string        `env:"TELEGRAM_API_URL,default=https://api.telegram.org" validate:"required,url"`
	TelegramPollTimeout   time.Duration `env:"TELEGRAM_POLL_TIMEOUT,default=30s" validate:"gte=0"`
	Admins                string        `env:"ADMINS,required=true" validate:"required"`
	DiscordBotToken       string        `env:"DISCORD_BOT_TOKEN,required=true" validate:"required"`
	DiscordChannelID      string        `env:"DISCORD_CHANNEL_ID,required=true" validate:"required,numeric"`
	DiscordAPIURL         string        `env:"DISCORD_API_URL,default=https://discord.com/api/v10" validate:"required,url"`
	ChannelsFile          string        `env:"CHANNELS_FILE,default=channels.json" validate:"required"`
	KeywordsFile          string        `env:"KEYWORDS_FILE,default=keywords.json" validate:"required"`
	BadgerFilepath        string        `env:"BADGER_FILEPATH,default=data/audit" validate:"required"`
	LogLevel              string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	EventBufferSize       int           `env:"EVENT_BUFFER_SIZE,default=64" validate:"gte=1"`
	DeliveryTimeout       time.Duration `env:"DELIVERY_TIMEOUT,default=10s" validate:"gt=0"`
	ReplyTimeout          time.Duration `env:"REPLY_TIMEOUT,default=10s" validate:"gt=0"`
	MaxInflightDeliveries int           `env:"MAX_INFLIGHT_DELIVERIES,default=8" validate:"gte=1"`
	ShutdownGrace         time.Duration `env:"SHUTDOWN_GRACE,default=5s" validate:"gt=0"`
	RestartInterval       time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	MetricsAddr           string        `env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	HeartbeatInterval     time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"gte=0"`
}

// Validate checks the decoded configuration, including that ADMINS holds
// at least one sender id.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if len(c.AdminIDs()) == 0 {
		return fmt.Errorf("%w: ADMINS must list at least one sender id", errors.ErrInvalidConfig)
	}
	return nil
}

// AdminIDs splits the comma separated ADMINS value.
func (c Config) AdminIDs() []string {
	return lo.Uniq(lo.FilterMap(strings.Split(c.Admins, ","), func(id string, _ int) (string, bool) {
		id = strings.TrimSpace(id)
		return id, id != ""
	}))
}
