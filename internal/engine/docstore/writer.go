package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// WriteStats reports what ReplaceChannel did.
type WriteStats struct {
	Key       string `json:"key"`
	Deleted   int64  `json:"deleted"`
	Meta      int    `json:"meta"`
	Playlists int    `json:"playlists"`
	Videos    int    `json:"videos"`
	Comments  int    `json:"comments"`
}

// ReplaceChannel replaces the channel's four collections with snap's contents.
// Each collection is cleared and then refilled; an empty section leaves its
// collection empty. A snapshot without channel ID or name is rejected before
// anything is touched.
func (c *Cache) ReplaceChannel(ctx context.Context, snap *engine.ChannelSnapshot) (WriteStats, error) {
	if err := snap.Validate(); err != nil {
		return WriteStats{}, err
	}
	key := ChannelKey(snap.ChannelName)
	cols := CollectionsFor(key)
	stats := WriteStats{Key: key}

	sections := []struct {
		name  string
		value any
		count *int
	}{
		{cols.Meta, metaDoc(snap), &stats.Meta},
		{cols.Playlists, docs(snap.Playlists, playlistDoc), &stats.Playlists},
		{cols.Videos, docs(snap.Videos, videoDoc), &stats.Videos},
		{cols.Comments, docs(snap.Comments, commentDoc), &stats.Comments},
	}
	for _, s := range sections {
		deleted, inserted, err := c.replace(ctx, s.name, s.value)
		stats.Deleted += deleted
		if err != nil {
			return stats, err
		}
		*s.count = inserted
	}

	slog.Info("docstore: channel replaced",
		slog.String("key", key),
		slog.Int("playlists", stats.Playlists),
		slog.Int("videos", stats.Videos),
		slog.Int("comments", stats.Comments),
		slog.Int64("deleted", stats.Deleted))
	return stats, nil
}

// replace clears the collection, then stores v according to its shape.
func (c *Cache) replace(ctx context.Context, name string, v any) (deleted int64, inserted int, err error) {
	coll := c.db.Collection(name)
	deleted, err = coll.DeleteAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("clear %s: %w", name, err)
	}

	switch shape := ShapeOf(v); shape {
	case EmptyShape:
		return deleted, 0, nil
	case ListShape:
		items := listItems(v)
		if err := coll.InsertMany(ctx, items); err != nil {
			return deleted, 0, fmt.Errorf("insert %s: %w", name, err)
		}
		return deleted, len(items), nil
	case DocShape:
		if err := coll.InsertOne(ctx, v); err != nil {
			return deleted, 0, fmt.Errorf("insert %s: %w", name, err)
		}
		return deleted, 1, nil
	default:
		slog.Warn("docstore: unexpected value shape, collection left empty",
			slog.String("collection", name),
			slog.String("shape", shape.String()),
			slog.String("type", fmt.Sprintf("%T", v)))
		return deleted, 0, nil
	}
}
