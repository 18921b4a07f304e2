package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// ActivityRepository persists audit records.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityEntry) error
}

// ActivityRecorder accepts audit records for asynchronous persistence.
// Record must never block request handling; entries may be dropped under
// sustained backpressure.
type ActivityRecorder interface {
	Record(entry domain.ActivityEntry)
}
