package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type recorder struct {
	mu      sync.Mutex
	patches []content.Patch
	fail    error
	block   chan struct{}
}

func (r *recorder) save(_ context.Context, p content.Patch) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.patches = append(r.patches, p)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patches)
}

func title(s string) content.Patch { return content.Patch{Title: &s} }

func TestDebouncerCoalescesBurst(t *testing.T) {
	rec := &recorder{}
	d := New(context.Background(), logger.Nop(), rec.save, WithWindow(20*time.Millisecond))

	d.Push(title("a"))
	d.Push(title("ab"))
	d.Push(content.Patch{Body: []byte(`{"blocks":[]}`)})
	st, _ := d.Status()
	require.Equal(t, StatusPending, st)

	require.Eventually(t, func() bool {
		s, _ := d.Status()
		return s == StatusCommitted
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, rec.count())
	require.Equal(t, "ab", *rec.patches[0].Title)
	require.JSONEq(t, `{"blocks":[]}`, string(rec.patches[0].Body))
}

func TestDebouncerFlushSavesImmediately(t *testing.T) {
	rec := &recorder{}
	d := New(context.Background(), logger.Nop(), rec.save, WithWindow(time.Hour))
	d.Push(title("x"))
	require.NoError(t, d.Flush())
	require.Equal(t, 1, rec.count())

	require.NoError(t, d.Flush())
	require.Equal(t, 1, rec.count())
}

func TestDebouncerNeverOverlapsSaves(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	d := New(context.Background(), logger.Nop(), rec.save, WithWindow(time.Millisecond))

	d.Push(title("first"))
	require.Eventually(t, func() bool {
		s, _ := d.Status()
		return s == StatusSaving
	}, time.Second, time.Millisecond)

	d.Push(title("second"))
	time.Sleep(10 * time.Millisecond)
	close(rec.block)

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "first", *rec.patches[0].Title)
	require.Equal(t, "second", *rec.patches[1].Title)
}

func TestDebouncerKeepsFailedEdit(t *testing.T) {
	rec := &recorder{fail: errors.New("offline")}
	var seen []Status
	var mu sync.Mutex
	d := New(context.Background(), logger.Nop(), rec.save,
		WithWindow(time.Hour),
		WithStatusHook(func(s Status, _ error) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}),
	)
	d.Push(title("draft"))
	require.Error(t, d.Flush())
	st, err := d.Status()
	require.Equal(t, StatusFailed, st)
	require.Error(t, err)

	rec.mu.Lock()
	rec.fail = nil
	rec.mu.Unlock()
	require.NoError(t, d.Flush())
	require.Equal(t, "draft", *rec.patches[0].Title)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, StatusCommitted, seen[len(seen)-1])
}

func TestMergeLaterWins(t *testing.T) {
	tags := []string{"polity"}
	out := Merge(content.Patch{Title: ptr("a"), Tags: &tags}, content.Patch{Title: ptr("b")})
	require.Equal(t, "b", *out.Title)
	require.Equal(t, []string{"polity"}, *out.Tags)
}

func ptr(s string) *string { return &s }
