package engine

import (
	"fmt"
	"time"
)

// --- Harvest aggregate ---

// ChannelSnapshot is the full harvested state of one channel at one point in time.
// A snapshot is built fresh by every harvest and is read-only once handed to persistence.
type ChannelSnapshot struct {
	ChannelID         string           `json:"channel_id"`
	ChannelName       string           `json:"channel_name"`
	Subscribers       int64            `json:"subscribers"`
	Views             int64            `json:"views"`
	TotalVideos       int64            `json:"channel_video_count"` // channel statistic; Meta.VideoCount is the harvested count
	UploadsPlaylistID string           `json:"uploads_playlist_id,omitempty"`
	Playlists         []PlaylistRecord `json:"playlists"`
	Videos            []VideoRecord    `json:"videos"`
	Comments          []CommentRecord  `json:"comments"`
	Meta              RunMeta          `json:"meta"`
}

// Validate enforces the persistence precondition: channel ID and name are both present.
func (s *ChannelSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.ChannelID == "" || s.ChannelName == "" {
		return fmt.Errorf("%w (id=%q name=%q)", ErrInvalidSnapshot, s.ChannelID, s.ChannelName)
	}
	return nil
}

// RunMeta describes one harvest run.
type RunMeta struct {
	HarvestedAt       time.Time `json:"harvested_at"`
	QuotaUsed         int64     `json:"quota_used"`
	PlaylistCount     int       `json:"total_playlists"`
	VideoCount        int       `json:"total_videos"`
	CommentCount      int       `json:"total_comments"`
	InvalidIDsSkipped int       `json:"invalid_ids_skipped"`
	CommentFailures   int       `json:"comment_failures"`
}

// PlaylistRecord is one playlist owned by the harvested channel.
type PlaylistRecord struct {
	PlaylistID    string    `json:"playlist_id"`
	Title         string    `json:"playlist_name"`
	ChannelID     string    `json:"channel_id"`
	ChannelName   string    `json:"channel_name"`
	Description   string    `json:"description"`
	ItemCount     int64     `json:"item_count"`
	PrivacyStatus string    `json:"privacy_status"`
	PublishedAt   time.Time `json:"published_at"`
}

// VideoRecord is one video, stored once per harvest under the playlist it was discovered through.
type VideoRecord struct {
	VideoID         string    `json:"video_id"`
	PlaylistID      string    `json:"playlist_id"`
	Title           string    `json:"video_title"`
	Description     string    `json:"description"`
	PublishedAt     time.Time `json:"published_at"`
	CategoryID      int64     `json:"category_id"`
	Duration        string    `json:"duration"` // ISO 8601 period as returned by the API
	Definition      string    `json:"definition"`
	LicensedContent bool      `json:"licensed_content"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	DislikeCount    int64     `json:"dislike_count"`
	FavoriteCount   int64     `json:"favorite_count"`
	CommentCount    int64     `json:"comment_count"`
	Thumbnail       string    `json:"thumbnail"`
	CaptionStatus   string    `json:"caption_status"`
}

// CommentRecord is one top-level comment. Language and Sentiment are filled at
// synchronization time, never at harvest time.
type CommentRecord struct {
	CommentID   string    `json:"comment_id"`
	VideoID     string    `json:"video_id"`
	Author      string    `json:"author"`
	Text        string    `json:"comment_text"`
	LikeCount   int64     `json:"like_count"`
	ReplyCount  int64     `json:"reply_count"`
	IsPinned    bool      `json:"is_pinned"`
	IsHearted   bool      `json:"is_hearted"`
	PublishedAt time.Time `json:"comment_date"`
	Language    string    `json:"language,omitempty"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
}

// ChannelStats is the channel-level result of the CHANNEL_STATS stage.
type ChannelStats struct {
	ChannelID         string `json:"channel_id"`
	ChannelName       string `json:"channel_name"`
	Subscribers       int64  `json:"subscribers"`
	Views             int64  `json:"views"`
	TotalVideos       int64  `json:"channel_video_count"`
	UploadsPlaylistID string `json:"uploads_playlist_id,omitempty"`
}

// AuditRecord is appended to the global audit log after every packaged harvest.
type AuditRecord struct {
	ChannelID         string    `json:"channel_id"`
	ChannelName       string    `json:"channel_name"`
	Status            string    `json:"status"`
	QuotaUsed         int64     `json:"quota_used"`
	PlaylistCount     int       `json:"playlist_count"`
	VideoCount        int       `json:"video_count"`
	CommentCount      int       `json:"comment_count"`
	InvalidIDsSkipped int       `json:"invalid_ids_skipped"`
	CommentFailures   int       `json:"comment_failures"`
	Timestamp         time.Time `json:"timestamp"`
}

// Audit statuses.
const (
	AuditSuccess = "success"
	AuditFailed  = "failed"
)
