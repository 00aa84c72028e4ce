package harvestserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/harvest"
	"github.com/anatolykoptev/go_ytharvest/internal/toolutil"
)

const maxCommentsPerVideo = 500

func lookupKey(id string) string {
	return engine.CacheKey("channel_lookup", id)
}

func (h *handlers) lookup(ctx context.Context, _ *mcp.CallToolRequest, input ChannelLookupInput) (*mcp.CallToolResult, ChannelLookupOutput, error) {
	if h.d.Source == nil {
		return nil, ChannelLookupOutput{}, fmt.Errorf("youtube api: %w", engine.ErrNotConfigured)
	}
	id, err := toolutil.NormChannelID(input.ChannelID)
	if err != nil {
		return nil, ChannelLookupOutput{}, err
	}

	key := lookupKey(id)
	if input.Refresh {
		engine.CacheDelete(ctx, key)
	} else if stats, ok := engine.CacheLoadJSON[engine.ChannelStats](ctx, key); ok {
		return nil, ChannelLookupOutput{Channel: stats, Cached: true}, nil
	}

	stats, err := h.d.Source.Channel(ctx, id)
	if err != nil {
		return nil, ChannelLookupOutput{}, fmt.Errorf("channel_lookup: %w", err)
	}
	if stats == nil || stats.ChannelName == "" {
		return nil, ChannelLookupOutput{}, fmt.Errorf("%w: %s", engine.ErrChannelNotFound, id)
	}
	engine.CacheStoreJSON(ctx, key, *stats)
	return nil, ChannelLookupOutput{Channel: *stats}, nil
}

func (h *handlers) harvest(ctx context.Context, _ *mcp.CallToolRequest, input ChannelHarvestInput) (*mcp.CallToolResult, ChannelHarvestOutput, error) {
	if h.d.Source == nil {
		return nil, ChannelHarvestOutput{}, fmt.Errorf("youtube api: %w", engine.ErrNotConfigured)
	}
	if h.d.Cache == nil {
		return nil, ChannelHarvestOutput{}, fmt.Errorf("document cache: %w", engine.ErrNotConfigured)
	}
	id, err := toolutil.NormChannelID(input.ChannelID)
	if err != nil {
		return nil, ChannelHarvestOutput{}, err
	}

	opts := h.d.Harvest
	if input.CommentsPerVideo > 0 {
		opts.CommentsPerVideo = min(input.CommentsPerVideo, maxCommentsPerVideo)
	}
	if input.IncludeUploads != nil {
		opts.IncludeUploads = *input.IncludeUploads
	}
	h.rollover()
	hv := harvest.New(h.d.Source, h.d.Quota, h.d.Cache, opts)

	var res harvest.Result
	err = engine.TrackOperation(ctx, "channel_harvest", slowOp, func(ctx context.Context) error {
		var err error
		res, err = hv.Run(ctx, id, h.d.Cache)
		return err
	})
	if err != nil {
		return nil, ChannelHarvestOutput{}, fmt.Errorf("channel_harvest: %w", err)
	}

	snap := res.Snapshot
	engine.CacheStoreJSON(ctx, lookupKey(id), engine.ChannelStats{
		ChannelID:         snap.ChannelID,
		ChannelName:       snap.ChannelName,
		Subscribers:       snap.Subscribers,
		Views:             snap.Views,
		TotalVideos:       snap.TotalVideos,
		UploadsPlaylistID: snap.UploadsPlaylistID,
	})

	out := ChannelHarvestOutput{
		ChannelKey:        docstore.ChannelKey(snap.ChannelName),
		ChannelID:         snap.ChannelID,
		ChannelName:       snap.ChannelName,
		Playlists:         snap.Meta.PlaylistCount,
		Videos:            snap.Meta.VideoCount,
		Comments:          snap.Meta.CommentCount,
		InvalidIDsSkipped: snap.Meta.InvalidIDsSkipped,
		CommentFailures:   snap.Meta.CommentFailures,
		QuotaUsed:         snap.Meta.QuotaUsed,
		Write:             res.Write,
	}
	if h.d.Quota != nil {
		out.QuotaRemaining = h.d.Quota.Remaining()
	}
	slog.Info("channel_harvest: done",
		slog.String("channel_id", out.ChannelID),
		slog.String("key", out.ChannelKey),
		slog.Int64("quota_used", out.QuotaUsed))
	return nil, out, nil
}

func (h *handlers) migrate(ctx context.Context, _ *mcp.CallToolRequest, input ChannelMigrateInput) (*mcp.CallToolResult, ChannelMigrateOutput, error) {
	if h.d.Sync == nil {
		return nil, ChannelMigrateOutput{}, fmt.Errorf("warehouse: %w", engine.ErrNotConfigured)
	}
	key, err := toolutil.ResolveKey(input.ChannelKey, input.ChannelName)
	if err != nil {
		return nil, ChannelMigrateOutput{}, err
	}

	var out ChannelMigrateOutput
	err = engine.TrackOperation(ctx, "channel_migrate", slowOp, func(ctx context.Context) error {
		res, err := h.d.Sync.SyncChannel(ctx, key)
		if err != nil {
			return err
		}
		out = ChannelMigrateOutput{
			ChannelKey: key,
			ChannelID:  res.ChannelID,
			Playlists:  res.Playlists,
			Videos:     res.Videos,
			Comments:   res.Comments,
		}
		return nil
	})
	if err != nil {
		return nil, ChannelMigrateOutput{}, err
	}
	return nil, out, nil
}
