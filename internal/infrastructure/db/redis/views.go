package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuskart/marketplace-api/internal/api/metrics"
)

const viewTTL = time.Hour

// ViewTracker deduplicates listing views per viewer backed by Redis.
// Key format: view:<listing_id>:<viewer_key>
type ViewTracker struct {
	client *redis.Client
}

// NewViewTracker creates a ViewTracker wrapping the given Redis client.
func NewViewTracker(client *redis.Client) *ViewTracker {
	return &ViewTracker{client: client}
}

// FirstView reports whether this viewer has not seen the listing within the
// dedup window. The marker is set and checked in one round trip, so two
// concurrent views by the same viewer count once.
func (v *ViewTracker) FirstView(ctx context.Context, listingID, viewerKey string) (bool, error) {
	ok, err := v.client.SetNX(ctx, v.key(listingID, viewerKey), "1", viewTTL).Result()
	if err != nil {
		return false, fmt.Errorf("view dedup: %w", err)
	}
	if ok {
		metrics.ViewDedupTotal.WithLabelValues("counted").Inc()
	} else {
		metrics.ViewDedupTotal.WithLabelValues("duplicate").Inc()
	}
	return ok, nil
}

func (v *ViewTracker) key(listingID, viewerKey string) string {
	return fmt.Sprintf("view:%s:%s", listingID, viewerKey)
}
