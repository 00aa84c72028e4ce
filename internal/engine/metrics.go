package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	APICalls          atomic.Int64
	APIErrors         atomic.Int64
	KeyRotations      atomic.Int64
	QuotaUnits        atomic.Int64
	Harvests          atomic.Int64
	HarvestFailures   atomic.Int64
	CommentFailures   atomic.Int64
	InvalidVideoIDs   atomic.Int64
	Migrations        atomic.Int64
	MigrationFailures atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"api_calls":              metrics.APICalls.Load(),
		"api_errors":             metrics.APIErrors.Load(),
		"key_rotations":          metrics.KeyRotations.Load(),
		"quota_units":            metrics.QuotaUnits.Load(),
		"harvests":               metrics.Harvests.Load(),
		"harvest_failures":       metrics.HarvestFailures.Load(),
		"comment_fetch_failures": metrics.CommentFailures.Load(),
		"invalid_video_ids":      metrics.InvalidVideoIDs.Load(),
		"migrations":             metrics.Migrations.Load(),
		"migration_failures":     metrics.MigrationFailures.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"api_calls", "api_errors", "key_rotations", "quota_units",
		"harvests", "harvest_failures", "comment_fetch_failures", "invalid_video_ids",
		"migrations", "migration_failures",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for ytapi/ sub-package.
func IncrAPICalls()             { metrics.APICalls.Add(1) }
func IncrAPIErrors()            { metrics.APIErrors.Add(1) }
func IncrKeyRotations()         { metrics.KeyRotations.Add(1) }
func AddQuotaUnits(units int64) { metrics.QuotaUnits.Add(units) }

// Incrementors for harvest/ sub-package.
func IncrHarvests()            { metrics.Harvests.Add(1) }
func IncrHarvestFailures()     { metrics.HarvestFailures.Add(1) }
func AddCommentFailures(n int) { metrics.CommentFailures.Add(int64(n)) }
func AddInvalidVideoIDs(n int) { metrics.InvalidVideoIDs.Add(int64(n)) }

// Incrementors for warehouse/ sub-package.
func IncrMigrations()        { metrics.Migrations.Add(1) }
func IncrMigrationFailures() { metrics.MigrationFailures.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
