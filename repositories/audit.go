package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.IAuditRepository = AuditRepository{}

type AuditRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAuditRepository(db *badger.DB, log *slog.Logger) AuditRepository {
	return AuditRepository{db: db, log: log}
}

// Store appends an entry to the journal.
// The key is formatted as "audit:{kind}:{timestamp_padded}:{uuid}" so that a
// prefix scan per kind returns entries in chronological order, the uuid
// separating two entries written in the same nanosecond.
func (a AuditRepository) Store(entry domain.AuditEntry) error {
	key := fmt.Sprintf("audit:%s:%019d:%s", entry.Kind, entry.At.UnixNano(), entry.ID)
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// List returns at most limit entries of the given kind, newest first.
// A limit <= 0 returns everything.
func (a AuditRepository) List(kind domain.AuditKind, limit int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("audit:%s:", kind))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts from the greatest key under the prefix
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				a.log.Debug(fmt.Sprintf("Maximum of %d audit entries reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var entry domain.AuditEntry
				if err := json.Unmarshal(value, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}
