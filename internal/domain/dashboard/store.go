package dashboard

import (
	"context"
	"time"
)

// PreviewTTL is how long a stored preview specification stays readable.
const PreviewTTL = 24 * time.Hour

// StoredSpec pairs a specification with its storage key.
type StoredSpec struct {
	ID            string        `json:"id"`
	Specification Specification `json:"specification"`
}

// SpecStore persists preview specifications. Implementations own expiry:
// Get and List never return entries older than their TTL.
type SpecStore interface {
	Save(ctx context.Context, id string, spec Specification) error
	Get(ctx context.Context, id string) (Specification, bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]StoredSpec, error)
}
