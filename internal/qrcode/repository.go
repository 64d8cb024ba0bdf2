package qrcode

import "context"

// Repository is the Record Store. Implementations must make IncrementUsage atomic
// with respect to concurrent calls for the same id.
type Repository interface {
	// Create persists a pending record for targetURL and returns its new id.
	Create(ctx context.Context, targetURL string) (ID, error)
	Get(ctx context.Context, id ID) (*Record, error)
	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)
	// SetImageReference attaches an image and marks the record rendered.
	SetImageReference(ctx context.Context, id ID, reference string) error
	SetTargetURL(ctx context.Context, id ID, targetURL string) error
	IncrementUsage(ctx context.Context, id ID) (uint64, error)
}
