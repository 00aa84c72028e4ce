// Package harvestserver exposes the harvest and sync pipeline as MCP tools.
package harvestserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/harvest"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/warehouse"
)

// DocCache is the document-cache surface the tools use; *docstore.Cache implements it.
type DocCache interface {
	harvest.SnapshotWriter
	harvest.AuditSink
	ListChannels(ctx context.Context) ([]docstore.CachedChannel, error)
	ExportChannel(ctx context.Context, key string) ([]byte, error)
	Audits(ctx context.Context, channelID string, limit int) ([]engine.AuditRecord, error)
}

// Migrator copies a cached channel into the relational warehouse.
type Migrator interface {
	SyncChannel(ctx context.Context, key string) (warehouse.SyncResult, error)
}

// Deps wires the tools to their backends. Nil fields disable the tools that need them.
type Deps struct {
	Source  harvest.Source
	Quota   *quota.Governor
	Cache   DocCache
	Sync    Migrator
	Harvest harvest.Options
	KeyPool int
}

// slowOp is the duration above which a harvest or sync is logged as slow.
const slowOp = 2 * time.Minute

type handlers struct {
	d   *Deps
	now func() time.Time
}

// RegisterTools registers the channel and quota tools on server.
func RegisterTools(server *mcp.Server, d *Deps) int {
	h := &handlers{d: d, now: time.Now}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "channel_lookup",
		Description: "Look up a YouTube channel's live statistics (name, subscribers, views, video count, uploads playlist) by channel ID, @handle or channel URL. Costs 1 quota unit; results are cached.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.lookup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "channel_harvest",
		Description: "Harvest a YouTube channel: channel stats, every playlist, the videos in them and up to comments_per_video top-level comments per video. The result replaces the channel's collections in the document cache and is recorded in the audit log.",
	}, h.harvest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "channel_migrate",
		Description: "Copy a cached channel from the document cache into the relational warehouse in one transaction. The channel row is replaced; existing playlists, videos and comments are kept. Comments get language and sentiment annotations.",
	}, h.migrate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "channel_list",
		Description: "List the channels held in the document cache with their cache keys and harvest times.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.list)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "channel_export",
		Description: "Export a cached channel (metadata, playlists, videos, comments) as a JSON document.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.export)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quota_status",
		Description: "Show the session's API quota ledger: daily budget, units used, units remaining and the next Pacific-midnight reset.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.quotaStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quota_reset",
		Description: "Zero the session's API quota ledger, for example after the daily budget was raised. The ledger also clears itself at Pacific midnight.",
	}, h.quotaReset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "audit_log",
		Description: "Show recent harvest audit records, newest first. Optionally filter by channel_id.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.auditLog)

	return 8
}
