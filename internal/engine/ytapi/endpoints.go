package ytapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/pager"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// videosBatch is the most IDs videos.list accepts per request.
const videosBatch = 50

// Channel returns channel-level statistics, or nil when the API knows no such channel.
// A leading "@" resolves the input as a handle.
func (c *Client) Channel(ctx context.Context, channelID string) (*engine.ChannelStats, error) {
	resp, err := Call(ctx, c, quota.Channels, func(svc *youtube.Service) (*youtube.ChannelListResponse, error) {
		call := svc.Channels.List([]string{"snippet", "contentDetails", "statistics"})
		if h, ok := strings.CutPrefix(channelID, "@"); ok {
			call = call.ForHandle(h)
		} else {
			call = call.Id(channelID)
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	ch := resp.Items[0]
	stats := &engine.ChannelStats{ChannelID: ch.Id}
	if ch.Snippet != nil {
		stats.ChannelName = ch.Snippet.Title
	}
	if ch.Statistics != nil {
		stats.Subscribers = int64(ch.Statistics.SubscriberCount)
		stats.Views = int64(ch.Statistics.ViewCount)
		stats.TotalVideos = int64(ch.Statistics.VideoCount)
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		stats.UploadsPlaylistID = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	return stats, nil
}

// Playlists returns one page of the channel's playlists.
func (c *Client) Playlists(ctx context.Context, channelID, cursor string, pageSize int64) (pager.Page[engine.PlaylistRecord], error) {
	resp, err := Call(ctx, c, quota.Playlists, func(svc *youtube.Service) (*youtube.PlaylistListResponse, error) {
		call := svc.Playlists.List([]string{"snippet", "contentDetails", "status"}).
			ChannelId(channelID).
			MaxResults(pageSize)
		if cursor != "" {
			call = call.PageToken(cursor)
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		return pager.Page[engine.PlaylistRecord]{}, err
	}

	page := pager.Page[engine.PlaylistRecord]{Next: resp.NextPageToken}
	for _, pl := range resp.Items {
		rec := engine.PlaylistRecord{PlaylistID: pl.Id, ChannelID: channelID}
		if s := pl.Snippet; s != nil {
			rec.Title = s.Title
			rec.Description = s.Description
			rec.ChannelName = s.ChannelTitle
			if s.ChannelId != "" {
				rec.ChannelID = s.ChannelId
			}
			rec.PublishedAt = parseTime(s.PublishedAt)
		}
		if pl.ContentDetails != nil {
			rec.ItemCount = pl.ContentDetails.ItemCount
		}
		if pl.Status != nil {
			rec.PrivacyStatus = pl.Status.PrivacyStatus
		}
		page.Items = append(page.Items, rec)
	}
	return page, nil
}

// PlaylistVideoIDs returns one page of video IDs listed in a playlist.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID, cursor string, pageSize int64) (pager.Page[string], error) {
	resp, err := Call(ctx, c, quota.PlaylistItems, func(svc *youtube.Service) (*youtube.PlaylistItemListResponse, error) {
		call := svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize)
		if cursor != "" {
			call = call.PageToken(cursor)
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		return pager.Page[string]{}, err
	}

	page := pager.Page[string]{Next: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ContentDetails == nil {
			continue
		}
		page.Items = append(page.Items, item.ContentDetails.VideoId)
	}
	return page, nil
}

// Videos returns details for ids, fetched in batches of 50.
// On a failed batch the records gathered so far are returned along with the error.
// PlaylistID is left empty for the caller to fill.
func (c *Client) Videos(ctx context.Context, ids []string) ([]engine.VideoRecord, error) {
	out := make([]engine.VideoRecord, 0, len(ids))
	for start := 0; start < len(ids); start += videosBatch {
		end := min(start+videosBatch, len(ids))
		batch := ids[start:end]

		resp, err := Call(ctx, c, quota.Videos, func(svc *youtube.Service) (*youtube.VideoListResponse, error) {
			return svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
				Id(batch...).
				MaxResults(int64(len(batch))).
				Context(ctx).Do()
		})
		if err != nil {
			return out, fmt.Errorf("videos %d-%d: %w", start, end, err)
		}
		for _, v := range resp.Items {
			out = append(out, videoRecord(v))
		}
	}
	return out, nil
}

func videoRecord(v *youtube.Video) engine.VideoRecord {
	rec := engine.VideoRecord{VideoID: v.Id}
	if s := v.Snippet; s != nil {
		rec.Title = s.Title
		rec.Description = s.Description
		rec.PublishedAt = parseTime(s.PublishedAt)
		rec.CategoryID, _ = strconv.ParseInt(s.CategoryId, 10, 64)
		rec.Thumbnail = thumbnailURL(s.Thumbnails)
	}
	if cd := v.ContentDetails; cd != nil {
		rec.Duration = cd.Duration
		rec.Definition = cd.Definition
		rec.LicensedContent = cd.LicensedContent
		rec.CaptionStatus = cd.Caption
	}
	if st := v.Statistics; st != nil {
		rec.ViewCount = int64(st.ViewCount)
		rec.LikeCount = int64(st.LikeCount)
		rec.DislikeCount = int64(st.DislikeCount)
		rec.FavoriteCount = int64(st.FavoriteCount)
		rec.CommentCount = int64(st.CommentCount)
	}
	return rec
}

// CommentThreads returns one page of top-level comments for a video.
// A video with comments disabled yields an empty page, not an error.
func (c *Client) CommentThreads(ctx context.Context, videoID, cursor string, pageSize int64) (pager.Page[engine.CommentRecord], error) {
	resp, err := Call(ctx, c, quota.CommentThreads, func(svc *youtube.Service) (*youtube.CommentThreadListResponse, error) {
		call := svc.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(pageSize).
			TextFormat("plainText")
		if cursor != "" {
			call = call.PageToken(cursor)
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		if hasReason(err, "commentsDisabled") {
			slog.Debug("ytapi: comments disabled", slog.String("video_id", videoID))
			return pager.Page[engine.CommentRecord]{}, nil
		}
		return pager.Page[engine.CommentRecord]{}, err
	}

	page := pager.Page[engine.CommentRecord]{Next: resp.NextPageToken}
	for _, th := range resp.Items {
		if th.Snippet == nil || th.Snippet.TopLevelComment == nil || th.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		top := th.Snippet.TopLevelComment
		cs := top.Snippet
		text := cs.TextOriginal
		if text == "" {
			text = cs.TextDisplay
		}
		page.Items = append(page.Items, engine.CommentRecord{
			CommentID:   top.Id,
			VideoID:     videoID,
			Author:      cs.AuthorDisplayName,
			Text:        text,
			LikeCount:   cs.LikeCount,
			ReplyCount:  th.Snippet.TotalReplyCount,
			PublishedAt: parseTime(cs.PublishedAt),
		})
	}
	return page, nil
}

func hasReason(err error, reason string) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}

// thumbnailURL picks the best available thumbnail.
func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
