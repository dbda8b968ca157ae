package paginate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovareai/sam-prospector/pkg/unipile"
)

func page(n, count int, cursor string) *unipile.SearchResponse {
	items := make([]unipile.SearchItem, count)
	for i := range items {
		items[i] = unipile.SearchItem{ID: fmt.Sprintf("p%d-%d", n, i)}
	}
	return &unipile.SearchResponse{Items: items, Cursor: cursor}
}

func testConfig() Config {
	return Config{
		TargetCount:  1000,
		MaxPages:     50,
		HardMaxPages: 50,
		FetchAll:     true,
		PerPageLimit: 100,
		TotalCap:     2500,
		Interval:     time.Millisecond,
	}
}

func TestRun_StopsWhenCursorExhausted(t *testing.T) {
	pages := []*unipile.SearchResponse{
		page(1, 100, "c1"),
		page(2, 100, "c2"),
		page(3, 40, ""),
	}
	var gotCursors []string

	result, err := Run(context.Background(), testConfig(), func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		gotCursors = append(gotCursors, cursor)
		return pages[len(gotCursors)-1], nil
	})
	require.NoError(t, err)

	assert.Equal(t, ReasonNoCursor, result.Reason)
	assert.Equal(t, 3, result.PagesFetched)
	assert.Len(t, result.Items, 240)
	assert.Equal(t, []string{"", "c1", "c2"}, gotCursors)
}

func TestRun_SinglePageMode(t *testing.T) {
	cfg := testConfig()
	cfg.FetchAll = false

	result, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return page(1, 100, "more"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonSinglePage, result.Reason)
	assert.Equal(t, 1, result.PagesFetched)
}

func TestRun_TruncatesAtTarget(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCount = 150

	result, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return page(1, 100, "more"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonCapReached, result.Reason)
	assert.Len(t, result.Items, 150)
}

func TestRun_FinalPageWithoutCursorStillCapped(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCount = 150

	pages := []*unipile.SearchResponse{
		page(1, 100, "c1"),
		page(2, 100, ""),
	}
	calls := 0

	result, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		calls++
		return pages[calls-1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCursor, result.Reason)
	assert.Len(t, result.Items, 150)
}

func TestRun_TargetCappedByDialect(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCount = 99999
	cfg.TotalCap = 200

	result, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return page(1, 100, "more"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonCapReached, result.Reason)
	assert.Len(t, result.Items, 200)
}

func TestRun_MaxPages(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 2

	result, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return page(1, 10, "more"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonMaxPages, result.Reason)
	assert.Equal(t, 2, result.PagesFetched)
}

func TestRun_HardCeilingBoundsMaxPages(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 500
	assert.Equal(t, 50, cfg.EffectiveMaxPages())
}

func TestRun_FirstPageErrorIsFatal(t *testing.T) {
	_, err := Run(context.Background(), testConfig(), func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		return nil, eris.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first page")
}

func TestRun_LaterPageErrorKeepsPartial(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(), testConfig(), func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		calls++
		if calls == 1 {
			return page(1, 100, "c1"), nil
		}
		return nil, eris.New("boom")
	})
	require.NoError(t, err)

	assert.Equal(t, ReasonPageError, result.Reason)
	assert.Len(t, result.Items, 100)
	assert.Equal(t, 1, result.PagesFetched)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "page 2 failed")
}

func TestRun_UsageLimitKeepsPartial(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(), testConfig(), func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		calls++
		if calls == 1 {
			return page(1, 100, "c1"), nil
		}
		return nil, eris.Wrap(unipile.ErrUsageLimit, "status 429")
	})
	require.NoError(t, err)

	assert.Equal(t, ReasonQuotaLimit, result.Reason)
	assert.Len(t, result.Items, 100)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "usage limit")
}

func TestRun_RecordsTotalAvailable(t *testing.T) {
	result, err := Run(context.Background(), testConfig(), func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		resp := page(1, 50, "")
		resp.Paging.TotalCount = 4321
		return resp, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4321, result.TotalAvailable)
}

func TestRun_LimitClampedToTarget(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCount = 25

	var gotLimit int
	_, err := Run(context.Background(), cfg, func(ctx context.Context, cursor string, limit int) (*unipile.SearchResponse, error) {
		gotLimit = limit
		return page(1, 25, ""), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 25, gotLimit)
}
