//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Event is either a domain.InboundMessage or a domain.CommandEvent.
type Event any

// Source is the platform messages and commands are read from.
type Source interface {
	// Authenticate establishes the session once, before any polling.
	Authenticate(ctx context.Context) error
	// Poll blocks, pushing events until ctx is done or the session breaks.
	Poll(ctx context.Context, events chan<- Event) error
	Reply(ctx context.Context, chatID, replyTo, text string) error
	Close() error
}

// Delivery sends forwarded text to the destination platform.
type Delivery interface {
	Deliver(ctx context.Context, text string) (domain.DeliveryResult, error)
}

type IConfigStore interface {
	Snapshot() domain.Snapshot
	AddChannel(kind domain.ChannelKind, id domain.ChannelID) (bool, error)
	RemoveChannel(kind domain.ChannelKind, id domain.ChannelID) (bool, error)
	AddKeyword(keyword string) (bool, error)
	RemoveKeyword(keyword string) (bool, error)
}

type IAuditRepository interface {
	Store(entry domain.AuditEntry) error
	List(kind domain.AuditKind, limit int) ([]domain.AuditEntry, error)
}

type IDispatcher interface {
	Submit(ctx context.Context, messageID string, decision domain.Decision)
	Drain(ctx context.Context) error
}
