package harvestserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// rollover clears the ledger once the server-side daily reset has passed.
func (h *handlers) rollover() {
	if h.d.Quota != nil && h.d.Quota.Rollover(h.now()) {
		slog.Info("quota: daily ledger rolled over")
	}
}

func (h *handlers) quotaStatus(_ context.Context, _ *mcp.CallToolRequest, _ QuotaStatusInput) (*mcp.CallToolResult, QuotaStatusOutput, error) {
	if h.d.Quota == nil {
		return nil, QuotaStatusOutput{}, fmt.Errorf("quota ledger: %w", engine.ErrNotConfigured)
	}
	h.rollover()
	snap := h.d.Quota.Snapshot(h.now())
	return nil, QuotaStatusOutput{
		Budget:    snap.Budget,
		Used:      snap.Used,
		Remaining: snap.Remaining,
		Exhausted: h.d.Quota.Exhausted(),
		Keys:      h.d.KeyPool,
		ResetsAt:  formatTime(snap.ResetsAt),
	}, nil
}

func (h *handlers) quotaReset(_ context.Context, _ *mcp.CallToolRequest, _ QuotaResetInput) (*mcp.CallToolResult, QuotaResetOutput, error) {
	if h.d.Quota == nil {
		return nil, QuotaResetOutput{}, fmt.Errorf("quota ledger: %w", engine.ErrNotConfigured)
	}
	cleared := h.d.Quota.Used()
	h.d.Quota.Reset()
	h.rollover()
	slog.Info("quota: ledger reset", slog.Int64("cleared", cleared))

	snap := h.d.Quota.Snapshot(h.now())
	return nil, QuotaResetOutput{
		Cleared:   cleared,
		Budget:    snap.Budget,
		Remaining: snap.Remaining,
		ResetsAt:  formatTime(snap.ResetsAt),
	}, nil
}
