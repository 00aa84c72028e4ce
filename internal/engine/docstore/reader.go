package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// LoadChannel reads the cached snapshot for key. Documents are stripped of
// their store identity and normalized to one canonical shape: a document
// that wraps its records in an "items" list is expanded into those records.
// Returns engine.ErrNoMetadata when the metadata collection is empty.
func (c *Cache) LoadChannel(ctx context.Context, key string) (*engine.ChannelSnapshot, error) {
	cols := CollectionsFor(key)

	meta, err := c.db.Collection(cols.Meta).FindOne(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w for %q", engine.ErrNoMetadata, key)
		}
		return nil, fmt.Errorf("read %s: %w", cols.Meta, err)
	}
	snap := decodeMeta(stripInternal(meta))

	playlists, err := c.loadRecords(ctx, cols.Playlists)
	if err != nil {
		return nil, err
	}
	videos, err := c.loadRecords(ctx, cols.Videos)
	if err != nil {
		return nil, err
	}
	comments, err := c.loadRecords(ctx, cols.Comments)
	if err != nil {
		return nil, err
	}

	snap.Playlists = decodeAll(playlists, decodePlaylist)
	snap.Videos = decodeAll(videos, decodeVideo)
	snap.Comments = decodeAll(comments, decodeComment)
	return &snap, nil
}

func decodeAll[T any](in []Document, dec func(Document) T) []T {
	out := make([]T, len(in))
	for i, d := range in {
		out[i] = dec(d)
	}
	return out
}

// loadRecords reads every document in the collection as flat records.
func (c *Cache) loadRecords(ctx context.Context, name string) ([]Document, error) {
	raw, err := c.db.Collection(name).FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	out := make([]Document, 0, len(raw))
	for _, d := range raw {
		out = append(out, flatten(name, stripInternal(d))...)
	}
	return out, nil
}

// flatten resolves a stored document into zero or more records.
func flatten(collection string, d Document) []Document {
	items, wrapped := d["items"]
	if !wrapped || len(d) != 1 {
		return []Document{d}
	}
	switch ShapeOf(items) {
	case EmptyShape:
		return nil
	case ListShape:
		var out []Document
		for _, it := range listItems(items) {
			doc, ok := asDocument(it)
			if !ok {
				slog.Warn("docstore: skipping non-document item",
					slog.String("collection", collection),
					slog.String("type", fmt.Sprintf("%T", it)))
				continue
			}
			out = append(out, stripInternal(doc))
		}
		return out
	case DocShape:
		if doc, ok := asDocument(items); ok {
			return []Document{stripInternal(doc)}
		}
	}
	slog.Warn("docstore: unexpected items shape", slog.String("collection", collection))
	return nil
}

// CachedChannel summarizes one cached channel.
type CachedChannel struct {
	Key         string    `json:"key"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// ListChannels returns every channel with a metadata collection, sorted by key.
func (c *Cache) ListChannels(ctx context.Context) ([]CachedChannel, error) {
	names, err := c.db.CollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)

	var out []CachedChannel
	for _, name := range names {
		key, ok := strings.CutSuffix(name, SuffixMeta)
		if !ok || key == "" {
			continue
		}
		meta, err := c.db.Collection(name).FindOne(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		m := decodeMeta(meta)
		out = append(out, CachedChannel{
			Key:         key,
			ChannelID:   m.ChannelID,
			ChannelName: m.ChannelName,
			HarvestedAt: m.Meta.HarvestedAt,
		})
	}
	return out, nil
}
