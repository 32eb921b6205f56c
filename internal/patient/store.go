package patient

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("patient not found")

// Store persists patient records, their conversation log, and self-pay
// selections. CommitIntake must apply the patient update and the summary
// log entry atomically: either both become durable or neither does.
type Store interface {
	Create(ctx context.Context, name string) (Patient, error)
	Get(ctx context.Context, id string) (Patient, error)

	// FindByNameLike returns every patient whose stored name contains the
	// given name as a substring, or whose name is itself contained in it.
	// Matching is case-sensitive; results come back in creation order.
	FindByNameLike(ctx context.Context, name string) ([]Patient, error)

	CommitIntake(ctx context.Context, id string, update IntakeUpdate, summary string) error

	AppendLog(ctx context.Context, entry LogEntry) error
	// ListLog returns a patient's log in chronological order, optionally
	// filtered by category (empty category means all).
	ListLog(ctx context.Context, patientID string, category Category) ([]LogEntry, error)

	ListRecent(ctx context.Context, limit int) ([]Patient, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)

	AddSelfPayItems(ctx context.Context, patientID string, items []SelfPayItem) error
	ListSelfPayItems(ctx context.Context, patientID string) ([]SelfPayItem, error)

	Close() error
}
