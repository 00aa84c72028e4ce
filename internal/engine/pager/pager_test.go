package pager

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// pages serves a fixed sequence of pages keyed by cursor.
func pages(data map[string]Page[int], calls *[]int64) FetchFunc[int] {
	return func(_ context.Context, cursor string, size int64) (Page[int], error) {
		*calls = append(*calls, size)
		p, ok := data[cursor]
		if !ok {
			return Page[int]{}, fmt.Errorf("unknown cursor %q", cursor)
		}
		return p, nil
	}
}

func TestFetchAllFollowsCursor(t *testing.T) {
	var calls []int64
	res := FetchAll(context.Background(), pages(map[string]Page[int]{
		"":   {Items: []int{1, 2}, Next: "p2"},
		"p2": {Items: []int{3}, Next: "p3"},
		"p3": {Items: []int{4, 5}},
	}, &calls), Options{PageSize: 2})

	if res.Stop != StopExhausted {
		t.Errorf("Stop = %v, want exhausted", res.Stop)
	}
	if len(res.Items) != 5 || res.Pages != 3 {
		t.Errorf("got %d items over %d pages", len(res.Items), res.Pages)
	}
	for _, size := range calls {
		if size != 2 {
			t.Errorf("requested page size %d, want 2", size)
		}
	}
}

func TestFetchAllErrorKeepsAccumulated(t *testing.T) {
	var calls []int64
	res := FetchAll(context.Background(), pages(map[string]Page[int]{
		"": {Items: []int{1, 2, 3}, Next: "missing"},
	}, &calls), Options{})

	if res.Stop != StopError || res.Err == nil {
		t.Fatalf("Stop = %v err = %v, want error", res.Stop, res.Err)
	}
	if len(res.Items) != 3 {
		t.Errorf("expected 3 accumulated items, got %d", len(res.Items))
	}
}

func TestFetchAllFirstPageError(t *testing.T) {
	boom := errors.New("boom")
	res := FetchAll(context.Background(), func(context.Context, string, int64) (Page[int], error) {
		return Page[int]{}, boom
	}, Options{})
	if !errors.Is(res.Err, boom) || len(res.Items) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFetchAllRepeatedCursor(t *testing.T) {
	var calls []int64
	res := FetchAll(context.Background(), pages(map[string]Page[int]{
		"":  {Items: []int{1}, Next: "a"},
		"a": {Items: []int{2}, Next: "a"},
	}, &calls), Options{})

	if res.Stop != StopRepeatedCursor {
		t.Errorf("Stop = %v, want repeated_cursor", res.Stop)
	}
	if len(res.Items) != 2 {
		t.Errorf("got %d items, want 2", len(res.Items))
	}
}

func TestFetchAllCycleDetected(t *testing.T) {
	var calls []int64
	res := FetchAll(context.Background(), pages(map[string]Page[int]{
		"":  {Items: []int{1}, Next: "a"},
		"a": {Items: []int{2}, Next: "b"},
		"b": {Items: []int{3}, Next: "a"},
	}, &calls), Options{})

	if res.Stop != StopRepeatedCursor || res.Pages != 3 {
		t.Errorf("Stop = %v pages = %d", res.Stop, res.Pages)
	}
}

func TestFetchAllMaxPages(t *testing.T) {
	n := 0
	res := FetchAll(context.Background(), func(context.Context, string, int64) (Page[int], error) {
		n++
		return Page[int]{Items: []int{n}, Next: fmt.Sprintf("c%d", n)}, nil
	}, Options{MaxPages: 4})

	if res.Stop != StopMaxPages || res.Pages != 4 || len(res.Items) != 4 {
		t.Errorf("unexpected result stop=%v pages=%d items=%d", res.Stop, res.Pages, len(res.Items))
	}
}

func TestFetchAllMaxItems(t *testing.T) {
	var sizes []int64
	n := 0
	res := FetchAll(context.Background(), func(_ context.Context, _ string, size int64) (Page[int], error) {
		sizes = append(sizes, size)
		items := make([]int, size)
		for i := range items {
			n++
			items[i] = n
		}
		return Page[int]{Items: items, Next: fmt.Sprintf("c%d", n)}, nil
	}, Options{PageSize: 20, MaxItems: 50})

	if res.Stop != StopMaxItems || len(res.Items) != 50 {
		t.Fatalf("stop=%v items=%d", res.Stop, len(res.Items))
	}
	want := []int64{20, 20, 10}
	if fmt.Sprint(sizes) != fmt.Sprint(want) {
		t.Errorf("page sizes = %v, want %v", sizes, want)
	}
}

func TestFetchAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := FetchAll(ctx, func(context.Context, string, int64) (Page[int], error) {
		t.Fatal("fetch must not be called")
		return Page[int]{}, nil
	}, Options{})
	if res.Stop != StopCanceled || !errors.Is(res.Err, context.Canceled) {
		t.Errorf("unexpected result %+v", res)
	}
}
