package docstore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// idField is the store-internal identity field stripped on read.
const idField = "_id"

func metaDoc(s *engine.ChannelSnapshot) bson.D {
	return bson.D{
		{Key: "channel_id", Value: s.ChannelID},
		{Key: "channel_name", Value: s.ChannelName},
		{Key: "subscribers", Value: s.Subscribers},
		{Key: "views", Value: s.Views},
		{Key: "channel_video_count", Value: s.TotalVideos},
		{Key: "uploads_playlist_id", Value: s.UploadsPlaylistID},
		{Key: "harvested_at", Value: s.Meta.HarvestedAt},
		{Key: "quota_used", Value: s.Meta.QuotaUsed},
		{Key: "playlist_count", Value: s.Meta.PlaylistCount},
		{Key: "video_count", Value: s.Meta.VideoCount},
		{Key: "comment_count", Value: s.Meta.CommentCount},
		{Key: "invalid_ids_skipped", Value: s.Meta.InvalidIDsSkipped},
		{Key: "comment_failures", Value: s.Meta.CommentFailures},
	}
}

func playlistDoc(p engine.PlaylistRecord) bson.D {
	return bson.D{
		{Key: "playlist_id", Value: p.PlaylistID},
		{Key: "playlist_name", Value: p.Title},
		{Key: "channel_id", Value: p.ChannelID},
		{Key: "channel_name", Value: p.ChannelName},
		{Key: "description", Value: p.Description},
		{Key: "item_count", Value: p.ItemCount},
		{Key: "privacy_status", Value: p.PrivacyStatus},
		{Key: "published_at", Value: p.PublishedAt},
	}
}

func videoDoc(v engine.VideoRecord) bson.D {
	return bson.D{
		{Key: "video_id", Value: v.VideoID},
		{Key: "playlist_id", Value: v.PlaylistID},
		{Key: "video_title", Value: v.Title},
		{Key: "description", Value: v.Description},
		{Key: "published_at", Value: v.PublishedAt},
		{Key: "category_id", Value: v.CategoryID},
		{Key: "duration", Value: v.Duration},
		{Key: "definition", Value: v.Definition},
		{Key: "licensed_content", Value: v.LicensedContent},
		{Key: "view_count", Value: v.ViewCount},
		{Key: "like_count", Value: v.LikeCount},
		{Key: "dislike_count", Value: v.DislikeCount},
		{Key: "favorite_count", Value: v.FavoriteCount},
		{Key: "comment_count", Value: v.CommentCount},
		{Key: "thumbnail", Value: v.Thumbnail},
		{Key: "caption_status", Value: v.CaptionStatus},
	}
}

func commentDoc(c engine.CommentRecord) bson.D {
	d := bson.D{
		{Key: "comment_id", Value: c.CommentID},
		{Key: "video_id", Value: c.VideoID},
		{Key: "author", Value: c.Author},
		{Key: "comment_text", Value: c.Text},
		{Key: "like_count", Value: c.LikeCount},
		{Key: "reply_count", Value: c.ReplyCount},
		{Key: "is_pinned", Value: c.IsPinned},
		{Key: "is_hearted", Value: c.IsHearted},
		{Key: "comment_date", Value: c.PublishedAt},
	}
	if c.Language != "" {
		d = append(d, bson.E{Key: "language", Value: c.Language})
	}
	if c.Sentiment != nil {
		d = append(d, bson.E{Key: "sentiment", Value: *c.Sentiment})
	}
	return d
}

func auditDoc(a engine.AuditRecord) bson.D {
	return bson.D{
		{Key: "channel_id", Value: a.ChannelID},
		{Key: "channel_name", Value: a.ChannelName},
		{Key: "status", Value: a.Status},
		{Key: "quota_used", Value: a.QuotaUsed},
		{Key: "playlist_count", Value: a.PlaylistCount},
		{Key: "video_count", Value: a.VideoCount},
		{Key: "comment_count", Value: a.CommentCount},
		{Key: "invalid_ids_skipped", Value: a.InvalidIDsSkipped},
		{Key: "comment_failures", Value: a.CommentFailures},
		{Key: "timestamp", Value: a.Timestamp},
	}
}

func docs[T any](in []T, enc func(T) bson.D) []bson.D {
	out := make([]bson.D, len(in))
	for i, v := range in {
		out[i] = enc(v)
	}
	return out
}

// --- decoding ---

func decodeMeta(d Document) engine.ChannelSnapshot {
	return engine.ChannelSnapshot{
		ChannelID:         asString(d["channel_id"]),
		ChannelName:       asString(d["channel_name"]),
		Subscribers:       asInt64(d["subscribers"]),
		Views:             asInt64(d["views"]),
		TotalVideos:       asInt64(firstOf(d, "channel_video_count", "total_videos")),
		UploadsPlaylistID: asString(d["uploads_playlist_id"]),
		Meta: engine.RunMeta{
			HarvestedAt:       asTime(d["harvested_at"]),
			QuotaUsed:         asInt64(d["quota_used"]),
			PlaylistCount:     int(asInt64(d["playlist_count"])),
			VideoCount:        int(asInt64(d["video_count"])),
			CommentCount:      int(asInt64(d["comment_count"])),
			InvalidIDsSkipped: int(asInt64(d["invalid_ids_skipped"])),
			CommentFailures:   int(asInt64(d["comment_failures"])),
		},
	}
}

func decodePlaylist(d Document) engine.PlaylistRecord {
	return engine.PlaylistRecord{
		PlaylistID:    asString(d["playlist_id"]),
		Title:         asString(d["playlist_name"]),
		ChannelID:     asString(d["channel_id"]),
		ChannelName:   asString(d["channel_name"]),
		Description:   asString(d["description"]),
		ItemCount:     asInt64(d["item_count"]),
		PrivacyStatus: asString(d["privacy_status"]),
		PublishedAt:   asTime(d["published_at"]),
	}
}

func decodeVideo(d Document) engine.VideoRecord {
	return engine.VideoRecord{
		VideoID:         asString(d["video_id"]),
		PlaylistID:      asString(d["playlist_id"]),
		Title:           asString(d["video_title"]),
		Description:     asString(d["description"]),
		PublishedAt:     asTime(d["published_at"]),
		CategoryID:      asInt64(d["category_id"]),
		Duration:        asString(d["duration"]),
		Definition:      asString(d["definition"]),
		LicensedContent: asBool(d["licensed_content"]),
		ViewCount:       asInt64(d["view_count"]),
		LikeCount:       asInt64(d["like_count"]),
		DislikeCount:    asInt64(d["dislike_count"]),
		FavoriteCount:   asInt64(d["favorite_count"]),
		CommentCount:    asInt64(d["comment_count"]),
		Thumbnail:       asString(d["thumbnail"]),
		CaptionStatus:   asString(d["caption_status"]),
	}
}

func decodeComment(d Document) engine.CommentRecord {
	return engine.CommentRecord{
		CommentID:   asString(d["comment_id"]),
		VideoID:     asString(d["video_id"]),
		Author:      asString(d["author"]),
		Text:        asString(d["comment_text"]),
		LikeCount:   asInt64(d["like_count"]),
		ReplyCount:  asInt64(d["reply_count"]),
		IsPinned:    asBool(d["is_pinned"]),
		IsHearted:   asBool(d["is_hearted"]),
		PublishedAt: asTime(d["comment_date"]),
		Language:    asString(d["language"]),
		Sentiment:   asFloatPtr(d["sentiment"]),
	}
}

func decodeAudit(d Document) engine.AuditRecord {
	return engine.AuditRecord{
		ChannelID:         asString(d["channel_id"]),
		ChannelName:       asString(d["channel_name"]),
		Status:            asString(d["status"]),
		QuotaUsed:         asInt64(d["quota_used"]),
		PlaylistCount:     int(asInt64(d["playlist_count"])),
		VideoCount:        int(asInt64(d["video_count"])),
		CommentCount:      int(asInt64(d["comment_count"])),
		InvalidIDsSkipped: int(asInt64(d["invalid_ids_skipped"])),
		CommentFailures:   int(asInt64(d["comment_failures"])),
		Timestamp:         asTime(d["timestamp"]),
	}
}

// firstOf returns the value of the first key present in d.
func firstOf(d Document, keys ...string) any {
	for _, k := range keys {
		if v, ok := d[k]; ok {
			return v
		}
	}
	return nil
}

// stripInternal returns d without store-internal identity fields.
func stripInternal(d Document) Document {
	if _, ok := d[idField]; !ok {
		return d
	}
	out := make(Document, len(d)-1)
	for k, v := range d {
		if k != idField {
			out[k] = v
		}
	}
	return out
}

// --- flexible scalar coercion; counts may have been stored as strings, int32, int64 or doubles ---

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint64:
		if t > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	case primitive.Decimal128:
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// asFloatPtr returns nil for a missing or non-numeric value.
func asFloatPtr(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case nil:
		return false
	default:
		return asInt64(v) != 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Time{}
}
