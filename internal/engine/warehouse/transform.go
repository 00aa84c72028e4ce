package warehouse

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// NormalizeDuration converts an ISO 8601 period ("PT1H2M3S") into an interval
// literal "HH:MM:SS" that both Postgres and SQLite accept. Hours are not
// wrapped at 24. Empty, negative or malformed input yields nil.
func NormalizeDuration(iso string) *string {
	iso = strings.TrimSpace(iso)
	if iso == "" || !strings.ContainsAny(iso, "0123456789") {
		return nil
	}
	// The parser silently drops trailing digits without a unit designator.
	if last := iso[len(iso)-1]; last >= '0' && last <= '9' {
		return nil
	}
	d, err := duration.Parse(iso)
	if err != nil || d.Negative {
		return nil
	}
	// Calendar units have no fixed length; live video durations never use them.
	if d.Years != 0 || d.Months != 0 {
		return nil
	}
	total := d.ToTimeDuration().Round(time.Second)
	if total < 0 {
		return nil
	}
	secs := int64(total / time.Second)
	out := fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	return &out
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// bounded fits s into a VARCHAR(n) column; empty becomes NULL.
func bounded(s string, n int) any {
	return nullString(engine.TruncateRunes(s, n, ""))
}

func channelRow(s *engine.ChannelSnapshot) []any {
	return []any{
		s.ChannelID,
		engine.TruncateRunes(s.ChannelName, 255, ""),
		s.Subscribers,
		s.Views,
		s.TotalVideos,
		nullString(s.UploadsPlaylistID),
		nullTime(s.Meta.HarvestedAt),
	}
}

// playlistRows keeps the first record per playlist ID. Rows that carry no
// channel ID are attributed to the snapshot's channel.
func playlistRows(s *engine.ChannelSnapshot) [][]any {
	seen := make(map[string]bool, len(s.Playlists))
	rows := make([][]any, 0, len(s.Playlists))
	for _, p := range s.Playlists {
		if p.PlaylistID == "" || seen[p.PlaylistID] {
			continue
		}
		seen[p.PlaylistID] = true
		channelID, channelName := p.ChannelID, p.ChannelName
		if channelID == "" {
			channelID = s.ChannelID
		}
		if channelName == "" {
			channelName = s.ChannelName
		}
		rows = append(rows, []any{
			p.PlaylistID,
			channelID,
			bounded(channelName, 255),
			p.Title,
			p.Description,
			p.ItemCount,
			bounded(p.PrivacyStatus, 32),
			nullTime(p.PublishedAt),
		})
	}
	return rows
}

func videoRows(s *engine.ChannelSnapshot) [][]any {
	seen := make(map[string]bool, len(s.Videos))
	rows := make([][]any, 0, len(s.Videos))
	for _, v := range s.Videos {
		if v.VideoID == "" || seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		var dur any
		if d := NormalizeDuration(v.Duration); d != nil {
			dur = *d
		}
		rows = append(rows, []any{
			v.VideoID,
			v.PlaylistID,
			v.Title,
			v.Description,
			nullTime(v.PublishedAt),
			v.CategoryID,
			dur,
			bounded(v.Definition, 16),
			v.LicensedContent,
			v.ViewCount,
			v.LikeCount,
			v.DislikeCount,
			v.FavoriteCount,
			v.CommentCount,
			nullString(v.Thumbnail),
			bounded(v.CaptionStatus, 16),
		})
	}
	return rows
}

// commentRows expects comments already annotated.
func commentRows(comments []engine.CommentRecord) [][]any {
	seen := make(map[string]bool, len(comments))
	rows := make([][]any, 0, len(comments))
	for _, c := range comments {
		if c.CommentID == "" || seen[c.CommentID] {
			continue
		}
		seen[c.CommentID] = true
		var sentiment any
		if c.Sentiment != nil {
			sentiment = *c.Sentiment
		}
		rows = append(rows, []any{
			c.CommentID,
			c.VideoID,
			c.Author,
			c.Text,
			c.LikeCount,
			c.ReplyCount,
			c.IsPinned,
			c.IsHearted,
			nullTime(c.PublishedAt),
			bounded(c.Language, 16),
			sentiment,
		})
	}
	return rows
}
