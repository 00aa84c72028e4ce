package harvestserver

import (
	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
)

// --- channel_lookup ---

type ChannelLookupInput struct {
	ChannelID string `json:"channel_id" jsonschema:"Channel ID (UC...), @handle or channel URL"`
	Refresh   bool   `json:"refresh,omitempty" jsonschema:"Bypass the response cache"`
}

type ChannelLookupOutput struct {
	Channel engine.ChannelStats `json:"channel"`
	Cached  bool                `json:"cached"`
}

// --- channel_harvest ---

type ChannelHarvestInput struct {
	ChannelID        string `json:"channel_id" jsonschema:"Channel ID (UC...), @handle or channel URL"`
	CommentsPerVideo int    `json:"comments_per_video,omitempty" jsonschema:"Top-level comments kept per video (default 50, max 500)"`
	IncludeUploads   *bool  `json:"include_uploads,omitempty" jsonschema:"Also walk the channel's uploads playlist"`
}

type ChannelHarvestOutput struct {
	ChannelKey        string              `json:"channel_key"`
	ChannelID         string              `json:"channel_id"`
	ChannelName       string              `json:"channel_name"`
	Playlists         int                 `json:"playlists"`
	Videos            int                 `json:"videos"`
	Comments          int                 `json:"comments"`
	InvalidIDsSkipped int                 `json:"invalid_ids_skipped"`
	CommentFailures   int                 `json:"comment_failures"`
	QuotaUsed         int64               `json:"quota_used"`
	QuotaRemaining    int64               `json:"quota_remaining"`
	Write             docstore.WriteStats `json:"write"`
}

// --- channel_migrate ---

type ChannelMigrateInput struct {
	ChannelKey  string `json:"channel_key,omitempty" jsonschema:"Cache key from channel_list"`
	ChannelName string `json:"channel_name,omitempty" jsonschema:"Channel name; used to derive the cache key when channel_key is empty"`
}

type ChannelMigrateOutput struct {
	ChannelKey string `json:"channel_key"`
	ChannelID  string `json:"channel_id"`
	Playlists  int    `json:"playlists"`
	Videos     int    `json:"videos"`
	Comments   int    `json:"comments"`
}

// --- channel_list ---

type ChannelListInput struct{}

type ChannelListOutput struct {
	Channels []ChannelSummary `json:"channels"`
}

type ChannelSummary struct {
	ChannelKey  string `json:"channel_key"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	HarvestedAt string `json:"harvested_at,omitempty"`
}

// --- channel_export ---

type ChannelExportInput struct {
	ChannelKey  string `json:"channel_key,omitempty" jsonschema:"Cache key from channel_list"`
	ChannelName string `json:"channel_name,omitempty" jsonschema:"Channel name; used to derive the cache key when channel_key is empty"`
}

type ChannelExportOutput struct {
	ChannelKey string `json:"channel_key"`
	Document   string `json:"document"`
}

// --- quota_status ---

type QuotaStatusInput struct{}

type QuotaStatusOutput struct {
	Budget    int64  `json:"budget"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Exhausted bool   `json:"exhausted"`
	Keys      int    `json:"keys"`
	ResetsAt  string `json:"resets_at"`
}

// --- quota_reset ---

type QuotaResetInput struct{}

type QuotaResetOutput struct {
	Cleared   int64  `json:"cleared"`
	Budget    int64  `json:"budget"`
	Remaining int64  `json:"remaining"`
	ResetsAt  string `json:"resets_at"`
}

// --- audit_log ---

type AuditLogInput struct {
	ChannelID string `json:"channel_id,omitempty" jsonschema:"Only records for this channel ID"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum records (default 20, max 200)"`
}

type AuditLogOutput struct {
	Records []AuditEntry `json:"records"`
}

type AuditEntry struct {
	ChannelID         string `json:"channel_id"`
	ChannelName       string `json:"channel_name"`
	Status            string `json:"status"`
	QuotaUsed         int64  `json:"quota_used"`
	Playlists         int    `json:"playlists"`
	Videos            int    `json:"videos"`
	Comments          int    `json:"comments"`
	InvalidIDsSkipped int    `json:"invalid_ids_skipped"`
	CommentFailures   int    `json:"comment_failures"`
	Timestamp         string `json:"timestamp"`
}
