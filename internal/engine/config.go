package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIKeys       []string
	YouTubeDailyQuota    int64
	YouTubeRPS           float64
	RetryAttempts        int
	RetryDelay           time.Duration
	CommentsPerVideo     int
	MaxPages             int
	FailureThreshold     float64 // fraction of videos whose comment fetch may fail; 0 = never abort
	IncludeUploads       bool    // also walk the channel's uploads playlist
	MongoURL             string
	MongoDB              string
	DatabaseURL          string // PostgreSQL; empty = SQLite at SQLitePath
	SQLitePath           string
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (ytapi, harvest, warehouse).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}

// RetryPolicy returns the transient-error retry policy derived from the config.
func (c Config) RetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy
	if c.RetryAttempts > 0 {
		p.MaxAttempts = c.RetryAttempts
	}
	if c.RetryDelay > 0 {
		p.Delay = c.RetryDelay
	}
	return p
}
