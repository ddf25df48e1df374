package halts

import (
	"context"

	"github.com/ternarybob/arbitror/internal/models"
)

// Provider fetches the current halt listing from one exchange. Fetch
// returns raw events without IDs; the correlator assigns identity and
// handles dedup against storage.
type Provider interface {
	Name() string
	Exchange() string
	Fetch(ctx context.Context) ([]*models.HaltEvent, error)
}
