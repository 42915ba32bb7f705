package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const debounceInterval = 2 * time.Second

// TriggerDebouncer collapses bursts of enrichment triggers across all
// instances. The SetNX key expires after debounceInterval, so the next
// trigger after the window starts a fresh run.
type TriggerDebouncer struct {
	rdb *goredis.Client
}

func NewTriggerDebouncer(rdb *goredis.Client) *TriggerDebouncer {
	return &TriggerDebouncer{rdb: rdb}
}

// Allow returns true when no trigger was accepted within the debounce
// window. The caller should skip queueing when it returns false.
func (d *TriggerDebouncer) Allow(ctx context.Context) (bool, error) {
	set, err := d.rdb.SetNX(ctx, "enrich:trigger:debounce", "1", debounceInterval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check trigger debounce: %w", err)
	}
	return set, nil
}
