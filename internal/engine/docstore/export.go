package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Export mirrors a cached channel as plain JSON values.
type Export struct {
	ChannelKey string           `json:"channel_key"`
	Meta       map[string]any   `json:"meta"`
	Playlists  []map[string]any `json:"playlists"`
	Videos     []map[string]any `json:"videos"`
	Comments   []map[string]any `json:"comments"`
}

// ExportChannel renders the cached channel as indented JSON. Object IDs and
// timestamps become strings.
func (c *Cache) ExportChannel(ctx context.Context, key string) ([]byte, error) {
	cols := CollectionsFor(key)
	meta, err := c.db.Collection(cols.Meta).FindOne(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w for %q", engine.ErrNoMetadata, key)
		}
		return nil, fmt.Errorf("read %s: %w", cols.Meta, err)
	}

	exp := Export{ChannelKey: key, Meta: jsonDoc(meta)}
	for _, s := range []struct {
		name string
		dst  *[]map[string]any
	}{
		{cols.Playlists, &exp.Playlists},
		{cols.Videos, &exp.Videos},
		{cols.Comments, &exp.Comments},
	} {
		raw, err := c.db.Collection(s.name).FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.name, err)
		}
		out := make([]map[string]any, len(raw))
		for i, d := range raw {
			out[i] = jsonDoc(d)
		}
		*s.dst = out
	}
	return json.MarshalIndent(exp, "", "  ")
}

func jsonDoc(d Document) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = jsonValue(v)
	}
	return out
}

// jsonValue converts driver values into JSON-native ones.
func jsonValue(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return t.String()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	}
	if doc, ok := asDocument(v); ok {
		return jsonDoc(doc)
	}
	return v
}
