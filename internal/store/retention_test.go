package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchDB answers each DELETE with the next count from affected.
type batchDB struct {
	affected []int64
	calls    int
	args     [][]any
	err      error
}

func (b *batchDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	b.args = append(b.args, args)
	if b.err != nil {
		return pgconn.CommandTag{}, b.err
	}
	n := b.affected[b.calls]
	b.calls++
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
}

func (b *batchDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (b *batchDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func TestDeleteReportsBefore_Batches(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &batchDB{affected: []int64{10, 10, 3}}

	n, err := deleteReportsBefore(context.Background(), db, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(23), n)
	assert.Equal(t, 3, db.calls, "stops after a short batch")
	assert.Equal(t, []any{cutoff, 10}, db.args[0])
}

func TestDeleteReportsBefore_DefaultBatch(t *testing.T) {
	db := &batchDB{affected: []int64{0}}
	n, err := deleteReportsBefore(context.Background(), db, time.Now(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 500, db.args[0][1])
}

func TestDeleteReportsBefore_Error(t *testing.T) {
	db := &batchDB{err: errors.New("connection reset")}
	_, err := deleteReportsBefore(context.Background(), db, time.Now(), 10)
	assert.ErrorContains(t, err, "connection reset")
}

func TestDeleteReportsBefore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	db := &batchDB{affected: []int64{10, 10, 10}}

	n, err := deleteReportsBefore(ctx, db, time.Now(), 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, 1, db.calls)
}

type fakeDeleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeDeleter) DeleteReportsBefore(_ context.Context, cutoff time.Time, _ int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func TestRunRetention(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	d := &fakeDeleter{n: 4}

	n, err := runRetention(context.Background(), d, RetentionConfig{MaxAge: 48 * time.Hour}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, []time.Time{now.Add(-48 * time.Hour)}, d.cutoffs)

	d.err = errors.New("boom")
	_, err = runRetention(context.Background(), d, RetentionConfig{MaxAge: time.Hour}, now)
	assert.Error(t, err)
}

func TestStartRetention_RunsOnStartAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDeleter{}

	done := make(chan struct{})
	go func() {
		StartRetention(ctx, d, RetentionConfig{MaxAge: time.Hour, CheckInterval: time.Hour})
		close(done)
	}()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.cutoffs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention did not stop")
	}
}
