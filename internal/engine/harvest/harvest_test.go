package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/pager"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
)

// fakeSource serves a canned channel and charges one quota unit per call.
type fakeSource struct {
	gov       *quota.Governor
	stats     *engine.ChannelStats
	statsErr  error
	playlists []engine.PlaylistRecord
	items     map[string][]string // playlist → video IDs
	comments  map[string]int      // video → number of comments available
	failVideo map[string]bool     // video → comment fetch fails
	pageSize  int64               // playlist items page size served

	playlistsErr      error  // Playlists fails with this error
	playlistsErrAfter string // when set, the first page succeeds and this cursor fails
	videosErr         error  // Videos fails with this error
	videosKept        int    // records Videos returns alongside videosErr

	commentCalls map[string]int
	videoCalls   [][]string
}

func (f *fakeSource) charge() {
	if f.gov != nil {
		f.gov.Consume(1)
	}
}

func (f *fakeSource) Channel(_ context.Context, id string) (*engine.ChannelStats, error) {
	f.charge()
	return f.stats, f.statsErr
}

func (f *fakeSource) Playlists(_ context.Context, _, cursor string, _ int64) (pager.Page[engine.PlaylistRecord], error) {
	f.charge()
	if f.playlistsErr != nil {
		if cursor == "" && f.playlistsErrAfter != "" {
			return pager.Page[engine.PlaylistRecord]{Items: f.playlists, Next: f.playlistsErrAfter}, nil
		}
		return pager.Page[engine.PlaylistRecord]{}, f.playlistsErr
	}
	return pager.Page[engine.PlaylistRecord]{Items: f.playlists}, nil
}

func (f *fakeSource) PlaylistVideoIDs(_ context.Context, playlistID, cursor string, size int64) (pager.Page[string], error) {
	f.charge()
	ids := f.items[playlistID]
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	if f.pageSize > 0 {
		size = f.pageSize
	}
	end := min(start+int(size), len(ids))
	page := pager.Page[string]{Items: ids[start:end]}
	if end < len(ids) {
		page.Next = fmt.Sprint(end)
	}
	return page, nil
}

func (f *fakeSource) Videos(_ context.Context, ids []string) ([]engine.VideoRecord, error) {
	f.charge()
	f.videoCalls = append(f.videoCalls, ids)
	out := make([]engine.VideoRecord, len(ids))
	for i, id := range ids {
		out[i] = engine.VideoRecord{VideoID: id, Title: "title " + id, Duration: "PT3M"}
	}
	if f.videosErr != nil {
		return out[:min(f.videosKept, len(out))], f.videosErr
	}
	return out, nil
}

func (f *fakeSource) CommentThreads(_ context.Context, videoID, cursor string, size int64) (pager.Page[engine.CommentRecord], error) {
	f.charge()
	if f.commentCalls == nil {
		f.commentCalls = map[string]int{}
	}
	f.commentCalls[videoID]++
	if f.failVideo[videoID] {
		return pager.Page[engine.CommentRecord]{}, errors.New("boom")
	}
	total := f.comments[videoID]
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	end := min(start+int(size), total)
	var page pager.Page[engine.CommentRecord]
	for i := start; i < end; i++ {
		page.Items = append(page.Items, engine.CommentRecord{CommentID: fmt.Sprintf("%s-c%d", videoID, i), VideoID: videoID, Text: "nice"})
	}
	if end < total {
		page.Next = fmt.Sprint(end)
	}
	return page, nil
}

type memAudit struct {
	records []engine.AuditRecord
}

func (m *memAudit) AppendAudit(_ context.Context, rec engine.AuditRecord) error {
	m.records = append(m.records, rec)
	return nil
}

type memWriter struct {
	snaps []*engine.ChannelSnapshot
}

func (m *memWriter) ReplaceChannel(_ context.Context, snap *engine.ChannelSnapshot) (docstore.WriteStats, error) {
	m.snaps = append(m.snaps, snap)
	return docstore.WriteStats{Key: docstore.ChannelKey(snap.ChannelName), Videos: len(snap.Videos)}, nil
}

func newFake(gov *quota.Governor) *fakeSource {
	return &fakeSource{
		gov:   gov,
		stats: &engine.ChannelStats{ChannelID: "UC123", ChannelName: "Go Talks", Subscribers: 10, Views: 100, TotalVideos: 3, UploadsPlaylistID: "UU123"},
		playlists: []engine.PlaylistRecord{
			{PlaylistID: "PL1", Title: "Intro"},
			{PlaylistID: "PL2", Title: "Empty"},
		},
		items: map[string][]string{
			"PL1": {"dQw4w9WgXcQ", "aaaaaaaaaaa", "bbbbbbbbbbb"},
			"PL2": {},
		},
		comments: map[string]int{"dQw4w9WgXcQ": 120, "aaaaaaaaaaa": 7, "bbbbbbbbbbb": 0},
	}
}

func TestValidVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"a-b_c-d_e-f", true},
		{"short", false},
		{"dQw4w9WgXcQx", false},
		{"dQw4w9WgXc!", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidVideoID(tt.id); got != tt.want {
			t.Errorf("ValidVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestExtractEndToEnd(t *testing.T) {
	gov := quota.New(10000)
	src := newFake(gov)
	audit := &memAudit{}
	var stages []Stage
	h := New(src, gov, audit, Options{CommentsPerVideo: 50, Progress: func(p Progress) {
		if len(stages) == 0 || stages[len(stages)-1] != p.Stage {
			stages = append(stages, p.Stage)
		}
	}})

	snap, err := h.Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.VideoCount != 3 || len(snap.Videos) != 3 {
		t.Errorf("Total Videos = %d, want 3", snap.Meta.VideoCount)
	}
	if snap.Meta.CommentCount > 150 {
		t.Errorf("Total Comments = %d, want <= 150", snap.Meta.CommentCount)
	}
	if snap.Meta.CommentCount != 57 {
		t.Errorf("Total Comments = %d, want 50+7+0", snap.Meta.CommentCount)
	}
	if snap.Meta.PlaylistCount != 2 {
		t.Errorf("playlists = %d, want 2", snap.Meta.PlaylistCount)
	}
	for _, v := range snap.Videos {
		if v.PlaylistID != "PL1" {
			t.Errorf("video %s owned by %q, want PL1", v.VideoID, v.PlaylistID)
		}
	}
	for _, pl := range snap.Playlists {
		if pl.ChannelName != "Go Talks" || pl.ChannelID != "UC123" {
			t.Errorf("playlist owner not filled: %+v", pl)
		}
	}
	if snap.Meta.QuotaUsed != gov.Used() || snap.Meta.QuotaUsed == 0 {
		t.Errorf("quota used = %d, governor used = %d", snap.Meta.QuotaUsed, gov.Used())
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.Status != engine.AuditSuccess || rec.VideoCount != 3 || rec.CommentCount != snap.Meta.CommentCount ||
		rec.PlaylistCount != 2 || rec.QuotaUsed != snap.Meta.QuotaUsed || rec.ChannelID != "UC123" {
		t.Errorf("audit record does not match snapshot: %+v", rec)
	}

	want := []Stage{StageInit, StageChannelStats, StagePlaylists, StageVideos, StageComments, StagePackaged}
	if fmt.Sprint(stages) != fmt.Sprint(want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}

func TestExtractChannelNotFound(t *testing.T) {
	for _, stats := range []*engine.ChannelStats{nil, {ChannelID: "UCx"}} {
		src := newFake(nil)
		src.stats = stats
		audit := &memAudit{}
		w := &memWriter{}
		h := New(src, nil, audit, Options{})

		res, err := h.Run(context.Background(), "UCx", w)
		if !errors.Is(err, engine.ErrChannelNotFound) {
			t.Fatalf("expected ErrChannelNotFound, got %v", err)
		}
		if res.Snapshot != nil {
			t.Error("expected no snapshot")
		}
		if len(w.snaps) != 0 || len(audit.records) != 0 {
			t.Error("nothing may be written for a missing channel")
		}
	}
}

func TestExtractChannelError(t *testing.T) {
	src := newFake(nil)
	src.statsErr = errors.New("terminal")
	if _, err := New(src, nil, nil, Options{}).Extract(context.Background(), "UC1"); err == nil || !strings.Contains(err.Error(), "channel stats") {
		t.Errorf("expected channel stats error, got %v", err)
	}
}

func TestExtractInvalidAndDuplicateIDs(t *testing.T) {
	src := newFake(nil)
	src.items = map[string][]string{
		"PL1": {"dQw4w9WgXcQ", "short", "aaaaaaaaaaa"},
		"PL2": {"aaaaaaaaaaa", "bad id here", "ccccccccccc"},
	}
	src.comments = map[string]int{}
	snap, err := New(src, nil, nil, Options{}).Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.InvalidIDsSkipped != 2 {
		t.Errorf("invalid ids = %d, want 2", snap.Meta.InvalidIDsSkipped)
	}
	owners := map[string]string{}
	for _, v := range snap.Videos {
		owners[v.VideoID] = v.PlaylistID
	}
	if len(owners) != 3 || owners["aaaaaaaaaaa"] != "PL1" || owners["ccccccccccc"] != "PL2" {
		t.Errorf("unexpected ownership %v", owners)
	}
	if _, fetched := src.commentCalls["short"]; fetched {
		t.Error("invalid id must be excluded from comment fetching")
	}
	if len(src.videoCalls) != 1 || len(src.videoCalls[0]) != 3 {
		t.Errorf("expected one details call with 3 distinct ids, got %v", src.videoCalls)
	}
}

func TestExtractPaginatesPlaylistItems(t *testing.T) {
	src := newFake(nil)
	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, fmt.Sprintf("vid%08d", i))
	}
	src.items = map[string][]string{"PL1": ids}
	src.playlists = src.playlists[:1]
	src.pageSize = 3
	src.comments = map[string]int{}

	snap, err := New(src, nil, nil, Options{}).Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Videos) != 7 {
		t.Errorf("videos = %d, want 7", len(snap.Videos))
	}
}

func TestExtractCommentFailureTolerated(t *testing.T) {
	src := newFake(nil)
	src.failVideo = map[string]bool{"aaaaaaaaaaa": true}
	audit := &memAudit{}

	snap, err := New(src, nil, audit, Options{}).Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.CommentFailures != 1 {
		t.Errorf("comment failures = %d, want 1", snap.Meta.CommentFailures)
	}
	if snap.Meta.CommentCount != 50 {
		t.Errorf("comments = %d, want 50 from the healthy videos", snap.Meta.CommentCount)
	}
	if src.commentCalls["bbbbbbbbbbb"] != 1 {
		t.Error("a failing video must not stop the others")
	}
	if audit.records[0].CommentFailures != 1 {
		t.Errorf("audit failures = %d", audit.records[0].CommentFailures)
	}
}

func TestExtractFailureThreshold(t *testing.T) {
	src := newFake(nil)
	src.failVideo = map[string]bool{"aaaaaaaaaaa": true, "bbbbbbbbbbb": true}
	audit := &memAudit{}
	w := &memWriter{}

	_, err := New(src, nil, audit, Options{FailureThreshold: 0.5}).Run(context.Background(), "UC123", w)
	if !errors.Is(err, engine.ErrTooManyFailures) {
		t.Fatalf("expected ErrTooManyFailures, got %v", err)
	}
	if len(audit.records) != 1 || audit.records[0].Status != engine.AuditFailed {
		t.Errorf("expected a failed audit record, got %+v", audit.records)
	}
	if len(w.snaps) != 0 {
		t.Error("a failed harvest must not replace the cache")
	}
}

func TestExtractIncludeUploads(t *testing.T) {
	src := newFake(nil)
	src.items["UU123"] = []string{"dQw4w9WgXcQ", "uuuuuuuuuuu"}
	src.comments = map[string]int{}

	snap, err := New(src, nil, nil, Options{IncludeUploads: true}).Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.PlaylistCount != 3 || len(snap.Videos) != 4 {
		t.Errorf("playlists=%d videos=%d", snap.Meta.PlaylistCount, len(snap.Videos))
	}
	for _, v := range snap.Videos {
		if v.VideoID == "dQw4w9WgXcQ" && v.PlaylistID != "PL1" {
			t.Errorf("first discovering playlist must win, got %q", v.PlaylistID)
		}
		if v.VideoID == "uuuuuuuuuuu" && v.PlaylistID != "UU123" {
			t.Errorf("uploads-only video owner = %q", v.PlaylistID)
		}
	}
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(newFake(nil), nil, nil, Options{}).Extract(ctx, "UC123"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWritesSnapshot(t *testing.T) {
	w := &memWriter{}
	h := New(newFake(nil), nil, nil, Options{})
	h.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	res, err := h.Run(context.Background(), "UC123", w)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.snaps) != 1 || res.Write.Key != "Go_Talks" || res.Write.Videos != 3 {
		t.Errorf("unexpected result %+v", res.Write)
	}
	if !res.Snapshot.Meta.HarvestedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("harvested_at = %v", res.Snapshot.Meta.HarvestedAt)
	}
}

var errKeysSpent = fmt.Errorf("youtube playlists: %w", engine.ErrKeysExhausted)

func TestRunListingFailureKeepsCache(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeSource)
		want  error
	}{
		{"playlists keys exhausted", func(f *fakeSource) { f.playlistsErr = errKeysSpent }, engine.ErrKeysExhausted},
		{"playlists partial then keys exhausted", func(f *fakeSource) {
			f.playlistsErr, f.playlistsErrAfter = errKeysSpent, "p2"
		}, engine.ErrKeysExhausted},
		{"videos nothing received", func(f *fakeSource) { f.videosErr = errBackend }, errBackend},
		{"videos partial then keys exhausted", func(f *fakeSource) {
			f.videosErr, f.videosKept = errKeysSpent, 1
		}, engine.ErrKeysExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFake(nil)
			tt.setup(src)
			audit := &memAudit{}
			w := &memWriter{}

			res, err := New(src, nil, audit, Options{}).Run(context.Background(), "UC123", w)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if res.Snapshot != nil {
				t.Error("expected no snapshot")
			}
			if len(w.snaps) != 0 {
				t.Error("a failed listing must not replace the cache")
			}
			if len(audit.records) != 0 {
				t.Errorf("expected no audit record, got %+v", audit.records)
			}
		})
	}
}

var errBackend = errors.New("backend unavailable")

func TestExtractPartialListingsTolerated(t *testing.T) {
	src := newFake(nil)
	src.playlistsErr, src.playlistsErrAfter = errBackend, "p2"
	src.videosErr, src.videosKept = errBackend, 2
	audit := &memAudit{}

	snap, err := New(src, nil, audit, Options{}).Extract(context.Background(), "UC123")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.PlaylistCount != 2 {
		t.Errorf("playlists = %d, want the 2 from the first page", snap.Meta.PlaylistCount)
	}
	if snap.Meta.VideoCount != 2 {
		t.Errorf("videos = %d, want the 2 received", snap.Meta.VideoCount)
	}
	if len(audit.records) != 1 || audit.records[0].Status != engine.AuditSuccess {
		t.Errorf("expected a success audit record, got %+v", audit.records)
	}
}
