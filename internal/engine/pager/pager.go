// Package pager follows continuation cursors on list-style API endpoints.
package pager

import (
	"context"
	"log/slog"
)

// Page is one response page: its items and the cursor for the next page.
// An empty Next means there are no more pages.
type Page[T any] struct {
	Items []T
	Next  string
}

// FetchFunc requests one page starting at cursor ("" for the first page)
// with at most pageSize items.
type FetchFunc[T any] func(ctx context.Context, cursor string, pageSize int64) (Page[T], error)

// Options bounds a fetch. Zero values take the defaults.
type Options struct {
	PageSize int64 // per-request cap; the API maximum is 50 for most list endpoints
	MaxItems int   // stop once this many items are accumulated; 0 = unlimited
	MaxPages int   // safety cap on the number of requests
}

// Defaults.
const (
	DefaultPageSize int64 = 50
	DefaultMaxPages       = 200
)

// Stop says why FetchAll returned.
type Stop int

const (
	StopExhausted      Stop = iota // no next cursor
	StopError                      // fetch failed; accumulated items are kept
	StopMaxItems                   // MaxItems reached
	StopRepeatedCursor             // server returned a cursor already seen
	StopMaxPages                   // MaxPages requests issued
	StopCanceled                   // context done
)

func (s Stop) String() string {
	switch s {
	case StopExhausted:
		return "exhausted"
	case StopError:
		return "error"
	case StopMaxItems:
		return "max_items"
	case StopRepeatedCursor:
		return "repeated_cursor"
	case StopMaxPages:
		return "max_pages"
	case StopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of FetchAll.
type Result[T any] struct {
	Items []T
	Pages int
	Stop  Stop
	Err   error // set when Stop is StopError or StopCanceled
}

// FetchAll accumulates pages from fetch until the cursor runs out or a bound
// is hit. It never fails: a fetch error ends the loop and returns whatever was
// accumulated so far, with the error recorded in the result.
func FetchAll[T any](ctx context.Context, fetch FetchFunc[T], opts Options) Result[T] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var res Result[T]
	seen := make(map[string]struct{})
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			res.Stop, res.Err = StopCanceled, err
			return res
		}
		if res.Pages >= maxPages {
			slog.Warn("pager: page cap reached", slog.Int("pages", res.Pages), slog.Int("items", len(res.Items)))
			res.Stop = StopMaxPages
			return res
		}

		size := pageSize
		if opts.MaxItems > 0 {
			if left := int64(opts.MaxItems - len(res.Items)); left < size {
				size = left
			}
		}

		page, err := fetch(ctx, cursor, size)
		res.Pages++
		if err != nil {
			res.Stop, res.Err = StopError, err
			return res
		}
		res.Items = append(res.Items, page.Items...)

		if opts.MaxItems > 0 && len(res.Items) >= opts.MaxItems {
			res.Items = res.Items[:opts.MaxItems]
			res.Stop = StopMaxItems
			return res
		}
		if page.Next == "" {
			res.Stop = StopExhausted
			return res
		}
		if _, dup := seen[page.Next]; dup || page.Next == cursor {
			slog.Warn("pager: repeated cursor", slog.String("cursor", page.Next), slog.Int("pages", res.Pages))
			res.Stop = StopRepeatedCursor
			return res
		}
		seen[page.Next] = struct{}{}
		cursor = page.Next
	}
}
