// go_ytharvest is a YouTube channel harvest and warehouse sync MCP server.
//
// Harvests a channel (stats, playlists, videos, top-level comments) through a
// rotating pool of API keys under a daily quota ledger, caches the snapshot in
// MongoDB and migrates cached channels into PostgreSQL (or a local SQLite file).
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/harvest"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/warehouse"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/ytapi"
	"github.com/anatolykoptev/go_ytharvest/internal/harvestserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8892")
)

func main() {
	initEngine()
	c := engine.Cfg

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	deps := &harvestserver.Deps{
		Quota: quota.New(c.YouTubeDailyQuota),
		Harvest: harvest.Options{
			CommentsPerVideo: c.CommentsPerVideo,
			MaxPages:         c.MaxPages,
			FailureThreshold: c.FailureThreshold,
			IncludeUploads:   c.IncludeUploads,
		},
	}

	api, err := ytapi.New(c.YouTubeAPIKeys, deps.Quota,
		ytapi.WithRetryPolicy(c.RetryPolicy()),
		ytapi.WithRateLimit(c.YouTubeRPS),
		ytapi.WithHTTPClient(c.HTTPClient),
	)
	if err != nil {
		slog.Warn("youtube api disabled", slog.Any("error", err))
	} else {
		deps.Source = api
		deps.KeyPool = api.KeyCount()
		slog.Info("youtube api ready", slog.Int("keys", api.KeyCount()), slog.Int64("daily_quota", c.YouTubeDailyQuota))
	}

	var docs *docstore.Cache
	if c.MongoURL != "" {
		mdb, err := docstore.ConnectMongo(ctx, c.MongoURL, c.MongoDB)
		if err != nil {
			slog.Warn("document cache init failed", slog.Any("error", err))
		} else {
			defer mdb.Close(context.Background()) //nolint:errcheck
			docs = docstore.New(mdb)
			deps.Cache = docs
			slog.Info("document cache initialized", slog.String("db", c.MongoDB))
		}
	}

	store := openWarehouse(ctx, c)
	if store != nil {
		defer store.Close() //nolint:errcheck
		if docs != nil {
			deps.Sync = warehouse.NewSynchronizer(store, docs, warehouse.NewTextAnnotator())
		}
	}

	slog.Info("starting go_ytharvest",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytharvest",
		Version: version,
	}, nil)

	n := harvestserver.RegisterTools(server, deps)
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytharvest",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 1800 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		YouTubeAPIKeys:       env.List("YOUTUBE_API_KEYS", ""),
		YouTubeDailyQuota:    int64(env.Int("YOUTUBE_DAILY_QUOTA", int(quota.DefaultDailyBudget))),
		YouTubeRPS:           env.Float("YOUTUBE_RPS", 5),
		RetryAttempts:        env.Int("YOUTUBE_RETRY_ATTEMPTS", 3),
		RetryDelay:           env.Duration("YOUTUBE_RETRY_DELAY", time.Second),
		CommentsPerVideo:     env.Int("COMMENTS_PER_VIDEO", harvest.DefaultCommentsPerVideo),
		MaxPages:             env.Int("MAX_PAGES", 200),
		FailureThreshold:     env.Float("COMMENT_FAILURE_THRESHOLD", 0),
		IncludeUploads:       envBool("INCLUDE_UPLOADS", false),
		MongoURL:             env.Str("MONGO_URL", ""),
		MongoDB:              env.Str("MONGO_DB", "YouTubeHarvest"),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		SQLitePath:           env.Str("SQLITE_PATH", defaultSQLitePath()),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", time.Hour)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// openWarehouse connects to Postgres when DATABASE_URL is set, otherwise opens
// the SQLite file. It returns nil when neither is usable.
func openWarehouse(ctx context.Context, c *engine.Config) warehouse.Store {
	if c.DatabaseURL != "" {
		pg, err := warehouse.ConnectPostgres(ctx, c.DatabaseURL)
		if err != nil {
			slog.Warn("warehouse postgres init failed", slog.Any("error", err))
			return nil
		}
		return pg
	}
	if c.SQLitePath == "" {
		return nil
	}
	lite, err := warehouse.OpenSQLite(c.SQLitePath)
	if err != nil {
		slog.Warn("warehouse sqlite init failed", slog.Any("error", err))
		return nil
	}
	slog.Info("warehouse sqlite opened", slog.String("path", c.SQLitePath))
	return lite
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".go_ytharvest", "warehouse.db")
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env.Str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}
