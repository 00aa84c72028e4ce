package docstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// AppendAudit adds rec to the global audit log.
func (c *Cache) AppendAudit(ctx context.Context, rec engine.AuditRecord) error {
	if err := c.db.Collection(AuditCollection).InsertOne(ctx, auditDoc(rec)); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// Audits returns audit records, newest first. An empty channelID returns all channels.
func (c *Cache) Audits(ctx context.Context, channelID string, limit int) ([]engine.AuditRecord, error) {
	raw, err := c.db.Collection(AuditCollection).FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	out := make([]engine.AuditRecord, 0, len(raw))
	for _, d := range raw {
		rec := decodeAudit(d)
		if channelID != "" && rec.ChannelID != channelID {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
