// Package harvest sequences the channel → playlists → videos → comments
// collection into one ChannelSnapshot.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/pager"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
)

// Source is the list-style API the harvester reads from.
type Source interface {
	Channel(ctx context.Context, channelID string) (*engine.ChannelStats, error)
	Playlists(ctx context.Context, channelID, cursor string, pageSize int64) (pager.Page[engine.PlaylistRecord], error)
	PlaylistVideoIDs(ctx context.Context, playlistID, cursor string, pageSize int64) (pager.Page[string], error)
	Videos(ctx context.Context, ids []string) ([]engine.VideoRecord, error)
	CommentThreads(ctx context.Context, videoID, cursor string, pageSize int64) (pager.Page[engine.CommentRecord], error)
}

// AuditSink receives one record per packaged harvest.
type AuditSink interface {
	AppendAudit(ctx context.Context, rec engine.AuditRecord) error
}

// SnapshotWriter persists a packaged snapshot.
type SnapshotWriter interface {
	ReplaceChannel(ctx context.Context, snap *engine.ChannelSnapshot) (docstore.WriteStats, error)
}

// Stage is one step of the harvest state machine.
type Stage string

const (
	StageInit         Stage = "INIT"
	StageChannelStats Stage = "CHANNEL_STATS"
	StagePlaylists    Stage = "PLAYLISTS"
	StageVideos       Stage = "VIDEOS"
	StageComments     Stage = "COMMENTS"
	StagePackaged     Stage = "PACKAGED"
)

// Progress is reported as the harvest advances.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// Options tune a harvest. Zero values take the defaults.
type Options struct {
	CommentsPerVideo int     // cap per video; default 50
	CommentPageSize  int64   // default 100, the commentThreads maximum
	PlaylistPageSize int64   // default 50
	MaxPages         int     // per paginated listing; default pager.DefaultMaxPages
	FailureThreshold float64 // fraction of videos whose comment fetch may fail; 0 = never abort
	IncludeUploads   bool    // also walk the channel's uploads playlist
	Progress         func(Progress)
}

// Defaults.
const (
	DefaultCommentsPerVideo       = 50
	DefaultCommentPageSize  int64 = 100
	DefaultPlaylistPageSize int64 = 50
)

// videoIDPattern is the fixed shape of a video ID.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id has the shape of a video ID.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// Harvester runs harvests against one Source. Each Extract builds a fresh snapshot.
type Harvester struct {
	src   Source
	gov   *quota.Governor
	audit AuditSink
	opts  Options
	now   func() time.Time
}

// New returns a harvester. gov and audit may be nil.
func New(src Source, gov *quota.Governor, audit AuditSink, opts Options) *Harvester {
	if opts.CommentsPerVideo <= 0 {
		opts.CommentsPerVideo = DefaultCommentsPerVideo
	}
	if opts.CommentPageSize <= 0 {
		opts.CommentPageSize = DefaultCommentPageSize
	}
	if opts.PlaylistPageSize <= 0 {
		opts.PlaylistPageSize = DefaultPlaylistPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = pager.DefaultMaxPages
	}
	return &Harvester{src: src, gov: gov, audit: audit, opts: opts, now: time.Now}
}

// run holds the state of one Extract call.
type run struct {
	h         *Harvester
	channelID string
	stage     Stage
	started   time.Time
	quotaAt   int64
}

func (r *run) enter(s Stage, attrs ...any) {
	r.stage = s
	args := append([]any{slog.String("channel_id", r.channelID), slog.String("stage", string(s))}, attrs...)
	slog.Info("harvest: stage", args...)
	r.progress(0, 0)
}

func (r *run) progress(done, total int) {
	if r.h.opts.Progress != nil {
		r.h.opts.Progress(Progress{Stage: r.stage, Done: done, Total: total})
	}
}

func (r *run) quotaUsed() int64 {
	if r.h.gov == nil {
		return 0
	}
	used := r.h.gov.Used() - r.quotaAt
	if used < 0 {
		// ledger was reset mid-run
		return r.h.gov.Used()
	}
	return used
}

// Extract harvests one channel. It returns engine.ErrChannelNotFound when the
// API resolves no named channel; nothing is written in that case. A playlist
// listing or video detail fetch that yields nothing, or that ran out of API
// keys, fails the harvest without an audit record. Partial failures while
// listing videos or comments only reduce the counts. When comment failures
// exceed the configured threshold the audit record is still written with
// status failed and ErrTooManyFailures is returned.
func (h *Harvester) Extract(ctx context.Context, channelID string) (*engine.ChannelSnapshot, error) {
	r := &run{h: h, channelID: channelID, started: h.now()}
	if h.gov != nil {
		r.quotaAt = h.gov.Used()
	}
	engine.IncrHarvests()

	r.enter(StageInit)
	snap, err := r.extract(ctx)
	if err != nil {
		engine.IncrHarvestFailures()
		if !errors.Is(err, engine.ErrChannelNotFound) {
			slog.Warn("harvest: failed",
				slog.String("channel_id", channelID),
				slog.String("stage", string(r.stage)),
				slog.Any("error", err))
		}
		return nil, err
	}
	return snap, nil
}

func (r *run) extract(ctx context.Context) (*engine.ChannelSnapshot, error) {
	h := r.h

	// CHANNEL_STATS
	r.enter(StageChannelStats)
	stats, err := h.src.Channel(ctx, r.channelID)
	if err != nil {
		return nil, fmt.Errorf("channel stats: %w", err)
	}
	if stats == nil || stats.ChannelName == "" {
		slog.Info("harvest: channel not found", slog.String("channel_id", r.channelID))
		return nil, fmt.Errorf("%w: %s", engine.ErrChannelNotFound, r.channelID)
	}
	if stats.ChannelID == "" {
		stats.ChannelID = r.channelID
	}

	// PLAYLISTS
	r.enter(StagePlaylists)
	playlists, err := r.playlists(ctx, stats)
	if err != nil {
		return nil, err
	}

	// VIDEOS
	r.enter(StageVideos, slog.Int("playlists", len(playlists)))
	videos, invalid, err := r.videos(ctx, playlists)
	if err != nil {
		return nil, err
	}

	// COMMENTS
	r.enter(StageComments, slog.Int("videos", len(videos)))
	comments, failures, err := r.comments(ctx, videos)
	if err != nil {
		return nil, err
	}

	// PACKAGED
	r.enter(StagePackaged)
	snap := &engine.ChannelSnapshot{
		ChannelID:         stats.ChannelID,
		ChannelName:       stats.ChannelName,
		Subscribers:       stats.Subscribers,
		Views:             stats.Views,
		TotalVideos:       stats.TotalVideos,
		UploadsPlaylistID: stats.UploadsPlaylistID,
		Playlists:         playlists,
		Videos:            videos,
		Comments:          comments,
		Meta: engine.RunMeta{
			HarvestedAt:       r.started.UTC(),
			QuotaUsed:         r.quotaUsed(),
			PlaylistCount:     len(playlists),
			VideoCount:        len(videos),
			CommentCount:      len(comments),
			InvalidIDsSkipped: invalid,
			CommentFailures:   failures,
		},
	}
	engine.AddInvalidVideoIDs(invalid)
	engine.AddCommentFailures(failures)

	status := engine.AuditSuccess
	var failErr error
	if t := h.opts.FailureThreshold; t > 0 && len(videos) > 0 && float64(failures)/float64(len(videos)) > t {
		status = engine.AuditFailed
		failErr = fmt.Errorf("%w: %d of %d videos", engine.ErrTooManyFailures, failures, len(videos))
	}
	r.writeAudit(ctx, snap, status)

	slog.Info("harvest: packaged",
		slog.String("channel_id", snap.ChannelID),
		slog.String("channel_name", snap.ChannelName),
		slog.String("status", status),
		slog.Int("playlists", snap.Meta.PlaylistCount),
		slog.Int("videos", snap.Meta.VideoCount),
		slog.Int("comments", snap.Meta.CommentCount),
		slog.Int("invalid_ids", invalid),
		slog.Int("comment_failures", failures),
		slog.Int64("quota_used", snap.Meta.QuotaUsed))

	if failErr != nil {
		return nil, failErr
	}
	return snap, nil
}

// playlists lists the channel's playlists, plus its uploads playlist when configured.
// Duplicate playlist IDs are dropped.
func (r *run) playlists(ctx context.Context, stats *engine.ChannelStats) ([]engine.PlaylistRecord, error) {
	h := r.h
	res := pager.FetchAll(ctx, func(ctx context.Context, cursor string, size int64) (pager.Page[engine.PlaylistRecord], error) {
		return h.src.Playlists(ctx, stats.ChannelID, cursor, size)
	}, pager.Options{PageSize: h.opts.PlaylistPageSize, MaxPages: h.opts.MaxPages})
	if res.Stop == pager.StopCanceled {
		return nil, res.Err
	}
	if stageFailed(res.Err, len(res.Items)) {
		return nil, fmt.Errorf("playlists: %w", res.Err)
	}
	if res.Err != nil {
		slog.Warn("harvest: playlist listing incomplete",
			slog.String("channel_id", stats.ChannelID),
			slog.Int("playlists", len(res.Items)),
			slog.Any("error", res.Err))
	}

	items := res.Items
	if h.opts.IncludeUploads && stats.UploadsPlaylistID != "" {
		items = append(items, engine.PlaylistRecord{
			PlaylistID:    stats.UploadsPlaylistID,
			Title:         "Uploads",
			ChannelID:     stats.ChannelID,
			PrivacyStatus: "public",
			ItemCount:     stats.TotalVideos,
		})
	}

	seen := make(map[string]bool, len(items))
	out := make([]engine.PlaylistRecord, 0, len(items))
	for _, pl := range items {
		if pl.PlaylistID == "" || seen[pl.PlaylistID] {
			continue
		}
		seen[pl.PlaylistID] = true
		if pl.ChannelID == "" {
			pl.ChannelID = stats.ChannelID
		}
		if pl.ChannelName == "" {
			pl.ChannelName = stats.ChannelName
		}
		out = append(out, pl)
	}
	return out, nil
}

// videos walks every playlist for video IDs, keeps the first playlist that
// lists each valid ID, and fetches details for them.
func (r *run) videos(ctx context.Context, playlists []engine.PlaylistRecord) ([]engine.VideoRecord, int, error) {
	h := r.h
	owner := make(map[string]string)
	var ids []string
	invalid := 0

	for i, pl := range playlists {
		res := pager.FetchAll(ctx, func(ctx context.Context, cursor string, size int64) (pager.Page[string], error) {
			return h.src.PlaylistVideoIDs(ctx, pl.PlaylistID, cursor, size)
		}, pager.Options{PageSize: h.opts.PlaylistPageSize, MaxPages: h.opts.MaxPages})
		if res.Stop == pager.StopCanceled {
			return nil, 0, res.Err
		}
		if res.Err != nil {
			slog.Warn("harvest: playlist items incomplete",
				slog.String("playlist_id", pl.PlaylistID),
				slog.Int("videos", len(res.Items)),
				slog.Any("error", res.Err))
		}

		for _, id := range res.Items {
			if !ValidVideoID(id) {
				invalid++
				slog.Warn("harvest: invalid video id skipped",
					slog.String("playlist_id", pl.PlaylistID),
					slog.String("video_id", id))
				continue
			}
			if _, dup := owner[id]; dup {
				continue
			}
			owner[id] = pl.PlaylistID
			ids = append(ids, id)
		}
		r.progress(i+1, len(playlists))
	}

	if len(ids) == 0 {
		return nil, invalid, nil
	}
	records, err := h.src.Videos(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		if stageFailed(err, len(records)) {
			return nil, 0, fmt.Errorf("video details: %w", err)
		}
		slog.Warn("harvest: video details incomplete",
			slog.Int("requested", len(ids)),
			slog.Int("received", len(records)),
			slog.Any("error", err))
	}

	out := make([]engine.VideoRecord, 0, len(records))
	for _, v := range records {
		pl, ok := owner[v.VideoID]
		if !ok {
			continue
		}
		v.PlaylistID = pl
		out = append(out, v)
		delete(owner, v.VideoID)
	}
	return out, invalid, nil
}

// stageFailed reports whether a listing error leaves the stage unusable:
// nothing was received, or every API key is spent.
func stageFailed(err error, received int) bool {
	return err != nil && (received == 0 || errors.Is(err, engine.ErrKeysExhausted))
}

// comments fetches up to CommentsPerVideo top-level comments for each video.
// A failing video is counted and skipped; the comments it yielded before
// failing are kept.
func (r *run) comments(ctx context.Context, videos []engine.VideoRecord) ([]engine.CommentRecord, int, error) {
	h := r.h
	var out []engine.CommentRecord
	seen := make(map[string]bool)
	failures := 0

	for i, v := range videos {
		res := pager.FetchAll(ctx, func(ctx context.Context, cursor string, size int64) (pager.Page[engine.CommentRecord], error) {
			return h.src.CommentThreads(ctx, v.VideoID, cursor, size)
		}, pager.Options{PageSize: h.opts.CommentPageSize, MaxItems: h.opts.CommentsPerVideo, MaxPages: h.opts.MaxPages})
		if res.Stop == pager.StopCanceled {
			return nil, 0, res.Err
		}
		if res.Err != nil {
			failures++
			slog.Warn("harvest: comment fetch failed",
				slog.String("video_id", v.VideoID),
				slog.Int("kept", len(res.Items)),
				slog.Any("error", res.Err))
		}
		for _, c := range res.Items {
			if c.CommentID == "" || seen[c.CommentID] {
				continue
			}
			seen[c.CommentID] = true
			if c.VideoID == "" {
				c.VideoID = v.VideoID
			}
			out = append(out, c)
		}
		r.progress(i+1, len(videos))
	}
	return out, failures, nil
}

func (r *run) writeAudit(ctx context.Context, snap *engine.ChannelSnapshot, status string) {
	if r.h.audit == nil {
		return
	}
	rec := engine.AuditRecord{
		ChannelID:         snap.ChannelID,
		ChannelName:       snap.ChannelName,
		Status:            status,
		QuotaUsed:         snap.Meta.QuotaUsed,
		PlaylistCount:     snap.Meta.PlaylistCount,
		VideoCount:        snap.Meta.VideoCount,
		CommentCount:      snap.Meta.CommentCount,
		InvalidIDsSkipped: snap.Meta.InvalidIDsSkipped,
		CommentFailures:   snap.Meta.CommentFailures,
		Timestamp:         r.h.now().UTC(),
	}
	if err := r.h.audit.AppendAudit(ctx, rec); err != nil {
		slog.Warn("harvest: audit write failed", slog.String("channel_id", snap.ChannelID), slog.Any("error", err))
	}
}

// Result is the outcome of Run.
type Result struct {
	Snapshot *engine.ChannelSnapshot
	Write    docstore.WriteStats
}

// Run extracts the channel and replaces its cached collections.
func (h *Harvester) Run(ctx context.Context, channelID string, w SnapshotWriter) (Result, error) {
	snap, err := h.Extract(ctx, channelID)
	if err != nil {
		return Result{}, err
	}
	stats, err := w.ReplaceChannel(ctx, snap)
	if err != nil {
		return Result{Snapshot: snap, Write: stats}, fmt.Errorf("cache channel %s: %w", snap.ChannelID, err)
	}
	return Result{Snapshot: snap, Write: stats}, nil
}
