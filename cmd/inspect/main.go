package main

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ChannelsFile   string `envconfig:"CHANNELS_FILE" default:"channels.json"`
	KeywordsFile   string `envconfig:"KEYWORDS_FILE" default:"keywords.json"`
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"data/audit"`
}

func main() {
	limit := flag.Int("limit", 20, "Audit entries shown per kind, 0 for all")
	flag.Parse()

	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	snapshot, err := loadSnapshot(cfg, quiet)
	if err != nil {
		log.Fatalf("Failed to read routing configuration: %v", err)
	}
	printHeader("Routing configuration")
	printSnapshot(snapshot)

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open audit journal: %v", err)
	}
	defer db.Close()

	audit := repositories.NewAuditRepository(db, quiet)
	for _, kind := range []domain.AuditKind{domain.AuditCommand, domain.AuditDenied, domain.AuditDeliveryFailed} {
		entries, err := audit.List(kind, *limit)
		if err != nil {
			log.Fatalf("Failed to read %s entries: %v", kind, err)
		}
		printHeader(fmt.Sprintf("Audit: %s (%d)", kind, len(entries)))
		printEntries(entries)
	}
}

// loadSnapshot reads the documents without creating missing ones.
func loadSnapshot(cfg Config, log *slog.Logger) (domain.Snapshot, error) {
	for _, path := range []string{cfg.ChannelsFile, cfg.KeywordsFile} {
		if _, err := os.Stat(path); err != nil {
			return domain.Snapshot{}, err
		}
	}
	return repositories.NewConfigStore(log, cfg.ChannelsFile, cfg.KeywordsFile).Load()
}

func printHeader(title string) {
	fmt.Println()
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + title + " "))
}

func printSnapshot(snapshot domain.Snapshot) {
	table := newTable([]string{"List", "#", "Value"})
	for _, kind := range []domain.ChannelKind{domain.Filtered, domain.Unfiltered} {
		for i, id := range snapshot.Channels(kind) {
			table.Append([]string{kind.String(), strconv.Itoa(i + 1), string(id)})
		}
	}
	for i, kw := range snapshot.Keywords() {
		table.Append([]string{"KEYWORDS", strconv.Itoa(i + 1), kw})
	}
	table.Render()
}

func printEntries(entries []domain.AuditEntry) {
	table := newTable([]string{"At", "Actor", "Command", "Detail"})
	for _, e := range entries {
		table.Append([]string{e.At.Format("2006-01-02 15:04:05"), e.Actor, e.Command, e.Detail})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
