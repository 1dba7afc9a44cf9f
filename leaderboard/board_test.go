package leaderboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/ringrun/kvstore"
)

func newBoard(store kvstore.Store, opts ...Option) *Board {
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(store, opts...)
}

func entry(user string, time float64) Entry {
	return Entry{User: user, Time: time, Seed: 7, Rings: 5}
}

func TestCourseKey(t *testing.T) {
	assert.Equal(t, "leaderboard:7:5", CourseKey(7, 5))
}

func TestInsert_OrdersAndCaps(t *testing.T) {
	list := []Entry{entry("a", 10), entry("b", 20), entry("c", 30)}

	got, rank := Insert(list, entry("d", 15), 3)

	want := []Entry{entry("a", 10), entry("d", 15), entry("b", 20)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Insert() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, rank)
	assert.Len(t, list, 3, "input list must not be modified")
	assert.Equal(t, "b", list[1].User)
}

func TestInsert_TiesKeepEarlierEntriesFirst(t *testing.T) {
	list := []Entry{entry("a", 10), entry("b", 10)}

	got, rank := Insert(list, entry("c", 10), 10)

	want := []Entry{entry("a", 10), entry("b", 10), entry("c", 10)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Insert() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, rank)
}

func TestInsert_FallsOffTheEnd(t *testing.T) {
	list := []Entry{entry("a", 10), entry("b", 20)}

	got, rank := Insert(list, entry("slow", 99), 2)

	assert.Equal(t, 0, rank)
	if diff := cmp.Diff(list, got); diff != "" {
		t.Errorf("Insert() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeEntry(t *testing.T) {
	tests := []struct {
		name    string
		in      Entry
		wantErr bool
	}{
		{"valid", entry("  ada  ", 12.5), false},
		{"empty user", entry("   ", 12.5), true},
		{"long user", entry(strings.Repeat("x", MaxUserLength+1), 12.5), true},
		{"zero time", entry("ada", 0), true},
		{"negative time", entry("ada", -1), true},
		{"nan time", entry("ada", math.NaN()), true},
		{"inf time", entry("ada", math.Inf(1)), true},
		{"no rings", Entry{User: "ada", Time: 1, Seed: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEntry(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEntry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada", got.User)
		})
	}
}

func TestBoard_RecordUpdatesCourseAndGlobal(t *testing.T) {
	ctx := context.Background()
	b := newBoard(kvstore.NewMemory())

	rank, err := b.Record(ctx, entry("ada", 30))
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	rank, err = b.Record(ctx, entry("grace", 20))
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	other := Entry{User: "linus", Time: 25, Seed: 8, Rings: 5}
	rank, err = b.Record(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, rank, "different seed is a different course")

	wantCourse := []Entry{entry("grace", 20), entry("ada", 30)}
	if diff := cmp.Diff(wantCourse, b.Course(ctx, 7, 5)); diff != "" {
		t.Errorf("Course() mismatch (-want +got):\n%s", diff)
	}
	wantGlobal := []Entry{entry("grace", 20), other, entry("ada", 30)}
	if diff := cmp.Diff(wantGlobal, b.Global(ctx)); diff != "" {
		t.Errorf("Global() mismatch (-want +got):\n%s", diff)
	}
}

func TestBoard_Limits(t *testing.T) {
	ctx := context.Background()
	b := newBoard(kvstore.NewMemory(), WithLimits(2, 3))

	for i, user := range []string{"a", "b", "c", "d"} {
		_, err := b.Record(ctx, entry(user, float64(10+i)))
		require.NoError(t, err)
	}
	rank, err := b.Record(ctx, entry("late", 50))
	require.NoError(t, err)

	assert.Equal(t, 0, rank)
	assert.Len(t, b.Course(ctx, 7, 5), 2)
	assert.Len(t, b.Global(ctx), 3)
}

func TestBoard_RejectsInvalidEntry(t *testing.T) {
	store := kvstore.NewMemory()
	b := newBoard(store)

	_, err := b.Record(context.Background(), entry("", 10))

	assert.ErrorIs(t, err, ErrInvalidEntry)
	_, err = store.Get(context.Background(), GlobalKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

// failingStore refuses writes to one key.
type failingStore struct {
	*kvstore.Memory
	failKey string
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if key == s.failKey {
		return errors.New("disk full")
	}
	return s.Memory.Set(ctx, key, value)
}

func TestBoard_FailedWriteKeepsListsInStep(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Memory: kvstore.NewMemory()}
	b := newBoard(store)

	_, err := b.Record(ctx, entry("ada", 30))
	require.NoError(t, err)

	store.failKey = CourseKey(7, 5)
	rank, err := b.Record(ctx, entry("grace", 20))
	require.Error(t, err)
	assert.Zero(t, rank)
	assert.Equal(t, []Entry{entry("ada", 30)}, b.Course(ctx, 7, 5))
	assert.Equal(t, []Entry{entry("ada", 30)}, b.Global(ctx), "the global write is undone")

	store.failKey = GlobalKey
	_, err = b.Record(ctx, entry("grace", 20))
	require.Error(t, err)
	assert.Equal(t, []Entry{entry("ada", 30)}, b.Course(ctx, 7, 5), "nothing is written after the global list fails")

	// A first run on a fresh course leaves no empty global list behind.
	fresh := &failingStore{Memory: kvstore.NewMemory(), failKey: CourseKey(7, 5)}
	_, err = newBoard(fresh).Record(ctx, entry("ada", 30))
	require.Error(t, err)
	_, err = fresh.Get(ctx, GlobalKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestBoard_CorruptListIsTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, CourseKey(7, 5), "{not json"))
	b := newBoard(store)

	assert.Empty(t, b.Course(ctx, 7, 5))

	rank, err := b.Record(ctx, entry("ada", 12))
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.Len(t, b.Course(ctx, 7, 5), 1)
}

func TestBoard_Username(t *testing.T) {
	ctx := context.Background()
	b := newBoard(kvstore.NewMemory())

	name, err := b.Username(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, b.SetUsername(ctx, " ada "))
	name, err = b.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", name)

	assert.ErrorIs(t, b.SetUsername(ctx, "  "), ErrInvalidEntry)
}

func TestBoard_WorksOnSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := kvstore.OpenSQLite("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer store.Close()
	b := newBoard(store)

	_, err = b.Record(ctx, entry("ada", 12))
	require.NoError(t, err)

	if diff := cmp.Diff([]Entry{entry("ada", 12)}, b.Course(ctx, 7, 5)); diff != "" {
		t.Errorf("Course() mismatch (-want +got):\n%s", diff)
	}
}
