package playback

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/service"
)

// fakeTransport reports a fixed duration on top of the null transport so
// position saves pass the validity guard.
type fakeTransport struct {
	*NullTransport
	durationMs int64
}

func (t *fakeTransport) Status(ctx context.Context) (Status, error) {
	status, err := t.NullTransport.Status(ctx)
	status.DurationMs = t.durationMs
	return status, err
}

type testEnv struct {
	coordinator *Coordinator
	transport   *fakeTransport
	catalog     *service.CatalogService
	positions   *service.PositionService
	recent      *service.RecentService
}

func setupTestCoordinator(t *testing.T, bookIDs ...string) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := docstore.NewMemoryStore()

	catalog := service.NewCatalogService(store, nil, "media.test", "", logger)
	for _, id := range bookIDs {
		_, err := catalog.UpsertBook(context.Background(), service.UpsertBookRequest{
			ID:     id,
			Title:  "Book " + id,
			Author: "Author",
		})
		require.NoError(t, err)
	}

	positions := service.NewPositionService(store, logger)
	recent := service.NewRecentService(store, logger)
	transport := &fakeTransport{NullTransport: NewNullTransport(), durationMs: 100_000}

	coordinator := NewCoordinator(transport, catalog, positions, recent, nil, logger)
	t.Cleanup(func() { coordinator.Close() })

	return &testEnv{
		coordinator: coordinator,
		transport:   transport,
		catalog:     catalog,
		positions:   positions,
		recent:      recent,
	}
}

func currentBook(t *testing.T, env *testEnv) string {
	t.Helper()
	snap := env.coordinator.Observe().Get()
	require.NotNil(t, snap.Book)
	return snap.Book.ID
}

func TestPlay_UnknownBook(t *testing.T) {
	env := setupTestCoordinator(t, "a")

	err := env.coordinator.Play(context.Background(), "missing")
	assert.Error(t, err)
	assert.False(t, env.coordinator.Observe().Get().IsPlaying)
}

func TestPlay_StartsAndMarksRecent(t *testing.T) {
	env := setupTestCoordinator(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))

	snap := env.coordinator.Observe().Get()
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, "a", snap.Book.ID)
	assert.Equal(t, []string{"a"}, env.recent.List())
}

func TestPlay_ResumesFromSavedPosition(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	env.positions.Save("a", 42_000, 100_000)
	require.NoError(t, env.coordinator.Play(ctx, "a"))

	status, err := env.transport.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), status.PositionMs)
}

func TestPlay_SnapshotShowsResumedPosition(t *testing.T) {
	env := setupTestCoordinator(t, "a")

	env.positions.Save("a", 42_000, 100_000)
	require.NoError(t, env.coordinator.Play(context.Background(), "a"))

	assert.Equal(t, int64(42_000), env.coordinator.Observe().Get().PositionMs)
}

func TestSample_AutosavesEveryTenActiveSamples(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.transport.SeekTo(ctx, 5000))

	for range savePeriodTicks - 1 {
		env.coordinator.sample()
	}
	_, ok := env.positions.Get("a")
	assert.False(t, ok, "no save before the tenth active sample")

	env.coordinator.sample()
	p, ok := env.positions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(5000), p.PositionMs)
}

func TestSample_PauseResetsAutosaveCounter(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.transport.SeekTo(ctx, 5000))

	for range 5 {
		env.coordinator.sample()
	}

	// A paused sample restarts the count from zero.
	require.NoError(t, env.transport.Pause(ctx))
	env.coordinator.sample()
	require.NoError(t, env.transport.Play(ctx))

	for range savePeriodTicks - 1 {
		env.coordinator.sample()
	}
	_, ok := env.positions.Get("a")
	assert.False(t, ok, "counter restarted after pause")

	env.coordinator.sample()
	_, ok = env.positions.Get("a")
	assert.True(t, ok)
}

func TestPlayPause_PauseSavesPosition(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.coordinator.Seek(ctx, 5000))

	require.NoError(t, env.coordinator.PlayPause(ctx))
	assert.False(t, env.coordinator.Observe().Get().IsPlaying)

	p, ok := env.positions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(5000), p.PositionMs)

	require.NoError(t, env.coordinator.PlayPause(ctx))
	assert.True(t, env.coordinator.Observe().Get().IsPlaying)
}

func TestSeek_SavesImmediately(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.coordinator.Seek(ctx, 30_000))

	p, ok := env.positions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(30_000), p.PositionMs)
}

func TestSkipNext_FollowsCatalogOrder(t *testing.T) {
	env := setupTestCoordinator(t, "a", "b", "c", "d")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "c"))
	require.NoError(t, env.coordinator.SkipNext(ctx))
	assert.Equal(t, "d", currentBook(t, env))
}

func TestSkipNext_WrapsAtEnd(t *testing.T) {
	env := setupTestCoordinator(t, "a", "b", "c", "d")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "d"))
	require.NoError(t, env.coordinator.SkipNext(ctx))
	assert.Equal(t, "a", currentBook(t, env))
}

func TestSkipPrevious_WrapsAtStart(t *testing.T) {
	env := setupTestCoordinator(t, "a", "b", "c", "d")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.coordinator.SkipPrevious(ctx))
	assert.Equal(t, "d", currentBook(t, env))
}

func TestSkipPrevious_SingleBookSeeksToStart(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.coordinator.Seek(ctx, 30_000))
	require.NoError(t, env.coordinator.SkipPrevious(ctx))

	status, err := env.transport.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.PositionMs)
	assert.Equal(t, "a", currentBook(t, env))
}

func TestSkipNext_EmptyCatalogIsNoOp(t *testing.T) {
	env := setupTestCoordinator(t)

	assert.NoError(t, env.coordinator.SkipNext(context.Background()))
	assert.Nil(t, env.coordinator.Observe().Get().Book)
}

func TestSkipNext_ShuffleNeverPicksCurrent(t *testing.T) {
	env := setupTestCoordinator(t, "a", "b", "c", "d")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	env.coordinator.mu.Lock()
	env.coordinator.mode = ModeShuffle
	env.coordinator.mu.Unlock()

	// Walk the shuffle pick through every possible draw.
	for draw, want := range map[int]string{0: "b", 1: "c", 2: "d"} {
		env.coordinator.randIntN = func(int) int { return draw }
		require.NoError(t, env.coordinator.Play(ctx, "a"))
		require.NoError(t, env.coordinator.SkipNext(ctx))
		assert.Equal(t, want, currentBook(t, env))
	}
}

func TestCycleMode(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	mode, err := env.coordinator.CycleMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeRepeatAll, mode)
	assert.Equal(t, "repeat_all", env.coordinator.Observe().Get().Mode)

	for range 3 {
		mode, err = env.coordinator.CycleMode(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, ModeOff, mode)
}

func TestCycleSpeed(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	speed, err := env.coordinator.CycleSpeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.25, speed)
	assert.Equal(t, 1.25, env.coordinator.Speed())
	assert.Equal(t, 1.25, env.coordinator.Observe().Get().Speed)
}

func TestSleepTimer_Validation(t *testing.T) {
	env := setupTestCoordinator(t, "a")

	assert.Error(t, env.coordinator.SetSleepTimer(0))
	assert.Error(t, env.coordinator.SetSleepTimer(-5))
}

func TestSleepTimer_SetAndClear(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.coordinator.SetSleepTimer(10))
	assert.Equal(t, int64(600_000), env.coordinator.Observe().Get().SleepRemainingMs)

	// Clearing cancels the countdown without pausing.
	env.coordinator.ClearSleepTimer()
	snap := env.coordinator.Observe().Get()
	assert.Zero(t, snap.SleepRemainingMs)
	assert.True(t, snap.IsPlaying)
}

func TestSleepTimer_ExpiryPausesPlayback(t *testing.T) {
	env := setupTestCoordinator(t, "a")
	ctx := context.Background()

	require.NoError(t, env.coordinator.Play(ctx, "a"))
	require.NoError(t, env.transport.SeekTo(ctx, 8000))

	var mu sync.Mutex
	var remainders []int64
	cancel := env.coordinator.Observe().Subscribe(func(s Snapshot) {
		mu.Lock()
		remainders = append(remainders, s.SleepRemainingMs)
		mu.Unlock()
	})
	defer cancel()

	// Run the countdown directly with a sub-minute remainder so the test
	// does not wait out a full timer period.
	env.coordinator.sleepLoop(ctx, 1500)

	mu.Lock()
	assert.Contains(t, remainders, int64(500), "countdown republishes remaining time")
	mu.Unlock()

	status, err := env.transport.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Playing())

	p, ok := env.positions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(8000), p.PositionMs)

	require.Eventually(t, func() bool {
		snap := env.coordinator.Observe().Get()
		return !snap.IsPlaying && snap.SleepRemainingMs == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_SavesFinalPosition(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store := docstore.NewMemoryStore()
	catalog := service.NewCatalogService(store, nil, "media.test", "", logger)
	_, err := catalog.UpsertBook(context.Background(), service.UpsertBookRequest{ID: "a", Title: "A", Author: "X"})
	require.NoError(t, err)
	positions := service.NewPositionService(store, logger)
	recent := service.NewRecentService(store, logger)
	transport := &fakeTransport{NullTransport: NewNullTransport(), durationMs: 100_000}
	coordinator := NewCoordinator(transport, catalog, positions, recent, nil, logger)

	ctx := context.Background()
	require.NoError(t, coordinator.Play(ctx, "a"))
	require.NoError(t, transport.SeekTo(ctx, 77_000))

	require.NoError(t, coordinator.Close())

	p, ok := positions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(77_000), p.PositionMs)
}
