package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openAuditDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Audit_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := NewAuditRepository(openAuditDB(t), slog.Default())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []domain.AuditEntry{
		domain.NewAuditEntry(domain.AuditCommand, "42", "add_keyword urgent", "applied", at),
		domain.NewAuditEntry(domain.AuditCommand, "42", "add_filter_channel newsA", "applied", at.Add(time.Minute)),
		domain.NewAuditEntry(domain.AuditCommand, "42", "remove_keyword urgent", "applied", at.Add(2*time.Minute)),
	}
	for _, e := range entries {
		req.NoError(repository.Store(e))
	}

	fetched, err := repository.List(domain.AuditCommand, 0)
	req.NoError(err)
	req.Equal([]domain.AuditEntry{entries[2], entries[1], entries[0]}, fetched)
}

func Test_Audit_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewAuditRepository(openAuditDB(t), slog.Default())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		req.NoError(repository.Store(domain.NewAuditEntry(domain.AuditDeliveryFailed, "newsA", "m", "status 500", at.Add(time.Duration(i)*time.Second))))
	}

	fetched, err := repository.List(domain.AuditDeliveryFailed, 2)
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal(at.Add(4*time.Second), fetched[0].At)
	req.Equal(at.Add(3*time.Second), fetched[1].At)
}

func Test_Audit_Kinds_Are_Separated(t *testing.T) {
	req := require.New(t)
	repository := NewAuditRepository(openAuditDB(t), slog.Default())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req.NoError(repository.Store(domain.NewAuditEntry(domain.AuditCommand, "42", "list_keyword", "", at)))
	req.NoError(repository.Store(domain.NewAuditEntry(domain.AuditDenied, "999", "add_keyword spam", "unauthorized", at)))

	denied, err := repository.List(domain.AuditDenied, 10)
	req.NoError(err)
	req.Len(denied, 1)
	req.Equal("999", denied[0].Actor)

	failed, err := repository.List(domain.AuditDeliveryFailed, 10)
	req.NoError(err)
	req.Empty(failed)
}
