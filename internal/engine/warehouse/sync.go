package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
)

// Sync steps reported by MigrationError.
const (
	StepLoad      = "load"
	StepSchema    = "schema"
	StepChannel   = "channel"
	StepPlaylists = "playlists"
	StepVideos    = "videos"
	StepComments  = "comments"
)

// SnapshotLoader reads a cached channel snapshot by channel key.
type SnapshotLoader interface {
	LoadChannel(ctx context.Context, key string) (*engine.ChannelSnapshot, error)
}

// MigrationError reports which step of a channel sync failed. The whole
// transaction has been rolled back when it is returned.
type MigrationError struct {
	Channel string
	Step    string
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate %s: %s: %v", e.Channel, e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// SyncResult counts the rows submitted for one channel.
type SyncResult struct {
	ChannelID string `json:"channel_id"`
	Playlists int    `json:"playlists"`
	Videos    int    `json:"videos"`
	Comments  int    `json:"comments"`
}

// Synchronizer copies cached snapshots into the warehouse.
type Synchronizer struct {
	store  Store
	loader SnapshotLoader
	annot  Annotator
}

// NewSynchronizer builds a Synchronizer. A nil annotator uses NewTextAnnotator.
func NewSynchronizer(store Store, loader SnapshotLoader, annot Annotator) *Synchronizer {
	if annot == nil {
		annot = NewTextAnnotator()
	}
	return &Synchronizer{store: store, loader: loader, annot: annot}
}

// SyncChannel migrates the cached snapshot stored under key. All writes
// happen in one transaction: the channel row replaces any previous version,
// while existing playlists, videos and comments are left untouched.
func (s *Synchronizer) SyncChannel(ctx context.Context, key string) (SyncResult, error) {
	start := time.Now()
	res, err := s.syncChannel(ctx, key)
	if err != nil {
		engine.IncrMigrationFailures()
		slog.Error("warehouse sync failed", slog.String("channel", key), slog.Any("error", err))
		return SyncResult{}, err
	}
	engine.IncrMigrations()
	slog.Info("warehouse sync complete",
		slog.String("channel", key),
		slog.Int("playlists", res.Playlists),
		slog.Int("videos", res.Videos),
		slog.Int("comments", res.Comments),
		slog.Int64("ms", time.Since(start).Milliseconds()))
	return res, nil
}

func (s *Synchronizer) syncChannel(ctx context.Context, key string) (SyncResult, error) {
	snap, err := s.loader.LoadChannel(ctx, key)
	if err != nil {
		return SyncResult{}, &MigrationError{Channel: key, Step: StepLoad, Err: err}
	}
	if err := snap.Validate(); err != nil {
		return SyncResult{}, &MigrationError{Channel: key, Step: StepLoad, Err: err}
	}

	comments := s.annotate(snap.Comments)
	playlists := playlistRows(snap)
	videos := videoRows(snap)
	commentRowsOut := commentRows(comments)
	dialect := s.store.Dialect()

	err = s.store.InTx(ctx, func(ctx context.Context, tx Execer) error {
		steps := []struct {
			name string
			run  func() error
		}{
			{StepSchema, func() error { return ensureSchema(ctx, tx) }},
			{StepChannel, func() error { return upsert(ctx, tx, dialect, channelTable, [][]any{channelRow(snap)}) }},
			{StepPlaylists, func() error { return upsert(ctx, tx, dialect, playlistTable, playlists) }},
			{StepVideos, func() error { return upsert(ctx, tx, dialect, videoTable, videos) }},
			{StepComments, func() error { return upsert(ctx, tx, dialect, commentTable, commentRowsOut) }},
		}
		for _, step := range steps {
			if err := ctx.Err(); err != nil {
				return &MigrationError{Channel: key, Step: step.name, Err: err}
			}
			if err := step.run(); err != nil {
				return &MigrationError{Channel: key, Step: step.name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var me *MigrationError
		if !errors.As(err, &me) {
			err = &MigrationError{Channel: key, Step: "commit", Err: err}
		}
		return SyncResult{}, err
	}

	return SyncResult{
		ChannelID: snap.ChannelID,
		Playlists: len(playlists),
		Videos:    len(videos),
		Comments:  len(commentRowsOut),
	}, nil
}

// annotate returns a copy of comments with language and sentiment filled.
// Values already present in the cache are kept.
func (s *Synchronizer) annotate(in []engine.CommentRecord) []engine.CommentRecord {
	out := make([]engine.CommentRecord, len(in))
	for i, c := range in {
		if c.Language == "" || c.Sentiment == nil {
			a := s.annot.Annotate(c.Text)
			if c.Language == "" {
				c.Language = a.Language
			}
			if c.Sentiment == nil {
				c.Sentiment = a.Sentiment
			}
		}
		if c.Language == "" {
			c.Language = DefaultLanguage
		}
		out[i] = c
	}
	return out
}
