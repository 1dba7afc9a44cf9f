// Package leaderboard keeps best run times per course and overall in a
// kvstore.Store, one JSON list per key.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gekko3d/ringrun/kvstore"
)

const (
	GlobalKey   = "leaderboard:global"
	UsernameKey = "username"

	DefaultCourseLimit = 10
	DefaultGlobalLimit = 20
	MaxUserLength      = 32
)

var ErrInvalidEntry = errors.New("leaderboard: invalid entry")

// Entry is one finished run. Time is in seconds.
type Entry struct {
	User  string  `json:"user"`
	Time  float64 `json:"time"`
	Seed  uint64  `json:"seed"`
	Rings int     `json:"rings"`
}

func CourseKey(seed uint64, rings int) string {
	return fmt.Sprintf("leaderboard:%d:%d", seed, rings)
}

type Board struct {
	mu          sync.Mutex
	store       kvstore.Store
	logger      *slog.Logger
	courseLimit int
	globalLimit int
}

type Option func(*Board)

// WithLimits caps the per-course and global lists. Non-positive values keep
// the defaults.
func WithLimits(course, global int) Option {
	return func(b *Board) {
		if course > 0 {
			b.courseLimit = course
		}
		if global > 0 {
			b.globalLimit = global
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func New(store kvstore.Store, opts ...Option) *Board {
	b := &Board{
		store:       store,
		logger:      slog.Default(),
		courseLimit: DefaultCourseLimit,
		globalLimit: DefaultGlobalLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NormalizeEntry trims the user name and checks the entry can be ranked.
func NormalizeEntry(e Entry) (Entry, error) {
	e.User = strings.TrimSpace(e.User)
	switch {
	case e.User == "":
		return e, fmt.Errorf("%w: empty user", ErrInvalidEntry)
	case utf8.RuneCountInString(e.User) > MaxUserLength:
		return e, fmt.Errorf("%w: user longer than %d characters", ErrInvalidEntry, MaxUserLength)
	case math.IsNaN(e.Time) || math.IsInf(e.Time, 0) || e.Time <= 0:
		return e, fmt.Errorf("%w: time must be a positive number of seconds, got %v", ErrInvalidEntry, e.Time)
	case e.Rings <= 0:
		return e, fmt.Errorf("%w: rings must be positive, got %d", ErrInvalidEntry, e.Rings)
	}
	return e, nil
}

// Insert places e in the ascending list after any entries with an equal
// time and cuts the list to limit. The returned rank is 1-based, or 0 when e
// did not make the cut. list is not modified.
func Insert(list []Entry, e Entry, limit int) ([]Entry, int) {
	pos, _ := slices.BinarySearchFunc(list, e.Time, func(have Entry, t float64) int {
		if have.Time <= t {
			return -1
		}
		return 1
	})
	out := slices.Insert(slices.Clone(list), pos, e)
	if len(out) > limit {
		out = out[:limit]
	}
	if pos >= limit {
		return out, 0
	}
	return out, pos + 1
}

// Record adds the run to its course list and the global list and returns
// its rank on the course list. On error neither list keeps the run, unless
// undoing the global write fails too, which is logged.
func (b *Board) Record(ctx context.Context, e Entry) (int, error) {
	e, err := NormalizeEntry(e)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prevGlobal := b.load(ctx, GlobalKey)
	global, _ := Insert(prevGlobal, e, b.globalLimit)
	if err := b.save(ctx, GlobalKey, global); err != nil {
		return 0, err
	}

	courseKey := CourseKey(e.Seed, e.Rings)
	course, rank := Insert(b.load(ctx, courseKey), e, b.courseLimit)
	if err := b.save(ctx, courseKey, course); err != nil {
		b.restore(ctx, GlobalKey, prevGlobal)
		return 0, err
	}

	b.logger.Info("run recorded", "user", e.User, "time", e.Time, "seed", e.Seed, "rings", e.Rings, "rank", rank)
	return rank, nil
}

func (b *Board) Course(ctx context.Context, seed uint64, rings int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx, CourseKey(seed, rings))
}

func (b *Board) Global(ctx context.Context) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx, GlobalKey)
}

// Username returns the remembered player name, or "" if none was saved.
func (b *Board) Username(ctx context.Context) (string, error) {
	name, err := b.store.Get(ctx, UsernameKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load username: %w", err)
	}
	return name, nil
}

func (b *Board) SetUsername(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxUserLength {
		return fmt.Errorf("%w: username must be 1 to %d characters", ErrInvalidEntry, MaxUserLength)
	}
	if err := b.store.Set(ctx, UsernameKey, name); err != nil {
		return fmt.Errorf("failed to save username: %w", err)
	}
	return nil
}

func (b *Board) restore(ctx context.Context, key string, list []Entry) {
	var err error
	if len(list) == 0 {
		err = b.store.Delete(ctx, key)
	} else {
		err = b.save(ctx, key, list)
	}
	if err != nil {
		b.logger.Error("failed to undo leaderboard write", "key", key, "err", err)
	}
}

// load treats a missing, unreadable or corrupt list as empty.
func (b *Board) load(ctx context.Context, key string) []Entry {
	raw, err := b.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		b.logger.Warn("failed to load leaderboard", "key", key, "err", err)
		return nil
	}
	var list []Entry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		b.logger.Warn("discarding corrupt leaderboard", "key", key, "err", err)
		return nil
	}
	return list
}

func (b *Board) save(ctx context.Context, key string, list []Entry) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard %s: %w", key, err)
	}
	if err := b.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to save leaderboard %s: %w", key, err)
	}
	return nil
}
