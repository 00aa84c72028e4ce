package harvestserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/toolutil"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (h *handlers) list(ctx context.Context, _ *mcp.CallToolRequest, _ ChannelListInput) (*mcp.CallToolResult, ChannelListOutput, error) {
	if h.d.Cache == nil {
		return nil, ChannelListOutput{}, fmt.Errorf("document cache: %w", engine.ErrNotConfigured)
	}
	channels, err := h.d.Cache.ListChannels(ctx)
	if err != nil {
		return nil, ChannelListOutput{}, err
	}
	out := ChannelListOutput{Channels: make([]ChannelSummary, 0, len(channels))}
	for _, c := range channels {
		out.Channels = append(out.Channels, ChannelSummary{
			ChannelKey:  c.Key,
			ChannelID:   c.ChannelID,
			ChannelName: c.ChannelName,
			HarvestedAt: formatTime(c.HarvestedAt),
		})
	}
	return nil, out, nil
}

func (h *handlers) export(ctx context.Context, _ *mcp.CallToolRequest, input ChannelExportInput) (*mcp.CallToolResult, ChannelExportOutput, error) {
	if h.d.Cache == nil {
		return nil, ChannelExportOutput{}, fmt.Errorf("document cache: %w", engine.ErrNotConfigured)
	}
	key, err := toolutil.ResolveKey(input.ChannelKey, input.ChannelName)
	if err != nil {
		return nil, ChannelExportOutput{}, err
	}
	data, err := h.d.Cache.ExportChannel(ctx, key)
	if err != nil {
		return nil, ChannelExportOutput{}, err
	}
	return nil, ChannelExportOutput{ChannelKey: key, Document: string(data)}, nil
}

func (h *handlers) auditLog(ctx context.Context, _ *mcp.CallToolRequest, input AuditLogInput) (*mcp.CallToolResult, AuditLogOutput, error) {
	if h.d.Cache == nil {
		return nil, AuditLogOutput{}, fmt.Errorf("document cache: %w", engine.ErrNotConfigured)
	}
	recs, err := h.d.Cache.Audits(ctx, input.ChannelID, toolutil.ClampLimit(input.Limit, 20, 200))
	if err != nil {
		return nil, AuditLogOutput{}, err
	}
	out := AuditLogOutput{Records: make([]AuditEntry, 0, len(recs))}
	for _, r := range recs {
		out.Records = append(out.Records, AuditEntry{
			ChannelID:         r.ChannelID,
			ChannelName:       r.ChannelName,
			Status:            r.Status,
			QuotaUsed:         r.QuotaUsed,
			Playlists:         r.PlaylistCount,
			Videos:            r.VideoCount,
			Comments:          r.CommentCount,
			InvalidIDsSkipped: r.InvalidIDsSkipped,
			CommentFailures:   r.CommentFailures,
			Timestamp:         formatTime(r.Timestamp),
		})
	}
	return nil, out, nil
}
