package warehouse

import (
	"context"
	"strings"
)

// table describes one target table and its conflict rule.
type table struct {
	name string
	key  string
	cols []string
	// replace updates every non-key column on conflict; otherwise the
	// existing row wins.
	replace bool
}

var (
	channelTable = table{
		name: "channel_table",
		key:  "channel_id",
		cols: []string{
			"channel_id", "channel_name", "subscribers", "channel_views",
			"total_videos", "uploads_playlist_id", "last_harvested_at",
		},
		replace: true,
	}
	playlistTable = table{
		name: "channel_playlist",
		key:  "playlist_id",
		cols: []string{
			"playlist_id", "channel_id", "channel_name", "playlist_name",
			"description", "item_count", "privacy_status", "published_at",
		},
	}
	videoTable = table{
		name: "channel_videos",
		key:  "video_id",
		cols: []string{
			"video_id", "playlist_id", "video_title", "video_description",
			"published_date", "category_id", "duration", "definition",
			"licensed_content", "view_count", "like_count", "dislike_count",
			"favorite_count", "comment_count", "thumbnail", "caption_status",
		},
	}
	commentTable = table{
		name: "channel_comments",
		key:  "comment_id",
		cols: []string{
			"comment_id", "video_id", "author", "comment_text", "like_count",
			"reply_count", "is_pinned", "is_hearted", "comment_date",
			"language", "sentiment",
		},
	}
)

// insertSQL renders a multi-row INSERT for rows rows.
func (t table) insertSQL(d Dialect, rows int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.name)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(t.cols, ", "))
	sb.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range t.cols {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.placeholder(n))
			n++
		}
		sb.WriteByte(')')
	}

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(t.key)
	sb.WriteString(") ")
	if !t.replace {
		sb.WriteString("DO NOTHING")
		return sb.String()
	}
	sb.WriteString("DO UPDATE SET ")
	first := true
	for _, col := range t.cols {
		if col == t.key {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(col)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(col)
	}
	return sb.String()
}

// upsert writes rows in chunks that fit the dialect's parameter limit.
// Rows must be unique on the table key.
func upsert(ctx context.Context, tx Execer, d Dialect, t table, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	chunk := d.maxParams() / len(t.cols)
	if chunk < 1 {
		chunk = 1
	}
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		args := make([]any, 0, (end-start)*len(t.cols))
		for _, row := range rows[start:end] {
			args = append(args, row...)
		}
		if err := tx.Exec(ctx, t.insertSQL(d, end-start), args...); err != nil {
			return err
		}
	}
	return nil
}
