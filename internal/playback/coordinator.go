package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/fablesound/fable-server/internal/domain"
	domainerrors "github.com/fablesound/fable-server/internal/errors"
	"github.com/fablesound/fable-server/internal/observe"
	"github.com/fablesound/fable-server/internal/service"
)

const (
	// tickInterval paces the position sampler and the sleep timer.
	tickInterval = time.Second
	// savePeriodTicks is how many active samples pass between position
	// saves. The counter only advances while actually playing and resets
	// on pause.
	savePeriodTicks = 10
)

// Snapshot is the transient view of transport state. It is never persisted
// and resets to the zero value when playback stops.
type Snapshot struct {
	Book             *domain.Book `json:"book,omitempty"`
	IsPlaying        bool         `json:"isPlaying"`
	PositionMs       int64        `json:"positionMs"`
	DurationMs       int64        `json:"durationMs"`
	Speed            float64      `json:"speed"`
	Mode             string       `json:"mode"`
	SleepRemainingMs int64        `json:"sleepRemainingMs,omitempty"`
}

// URLResolver resolves storage references to fetchable URLs. A nil resolver
// plays URLs as stored.
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Coordinator owns the single active transport. It mirrors transport state
// into an observable snapshot, drives position auto-save and the sleep
// timer, and sequences queue navigation over the catalog.
type Coordinator struct {
	transport Transport
	catalog   *service.CatalogService
	positions *service.PositionService
	recent    *service.RecentService
	resolver  URLResolver
	logger    *slog.Logger

	snapshot *observe.Value[Snapshot]

	mu          sync.Mutex
	current     *domain.Book
	mode        Mode
	speed       float64
	sampleCount int
	sleepCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// randIntN is swapped out in tests for deterministic shuffle.
	randIntN func(n int) int
}

// NewCoordinator creates a coordinator and starts its position sampler.
// resolver may be nil.
func NewCoordinator(transport Transport, catalog *service.CatalogService, positions *service.PositionService, recent *service.RecentService, resolver URLResolver, logger *slog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		transport: transport,
		catalog:   catalog,
		positions: positions,
		recent:    recent,
		resolver:  resolver,
		logger:    logger,
		snapshot:  observe.NewValue(Snapshot{Speed: 1.0, Mode: ModeOff.String()}),
		speed:     1.0,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		randIntN:  rand.IntN,
	}
	go c.sampleLoop()
	return c
}

// Observe returns the observable playback snapshot.
func (c *Coordinator) Observe() *observe.Value[Snapshot] {
	return c.snapshot
}

// Play switches playback to the given book: the outgoing track's position is
// saved, the book is resolved through the catalog and the URL resolver,
// recorded as recently played, and started from its saved position if one
// exists. Failures leave the coordinator paused.
func (c *Coordinator) Play(ctx context.Context, bookID string) error {
	c.saveNow(ctx)

	book, err := c.catalog.GetBook(ctx, bookID)
	if err != nil {
		c.settleStopped()
		return err
	}
	if book == nil {
		c.settleStopped()
		return domainerrors.NotFoundf("book %s not found", bookID)
	}
	if book.AudioURL == "" {
		c.settleStopped()
		c.logger.Error("book has no audio", "book_id", bookID)
		return domainerrors.Validationf("book %s has no audio", bookID)
	}

	playURL := book.AudioURL
	if c.resolver != nil {
		playURL, err = c.resolver.Resolve(ctx, book.AudioURL)
		if err != nil {
			c.settleStopped()
			c.logger.Error("failed to resolve audio url", "book_id", bookID, "error", err)
			return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "audio unavailable")
		}
	}

	c.recent.MarkPlayed(bookID)

	track := Track{
		BookID: book.ID,
		URL:    playURL,
		Title:  book.Title,
		Artist: book.Author,
	}
	if err := c.transport.Load(ctx, track); err != nil {
		c.settleStopped()
		c.logger.Error("transport load failed", "book_id", bookID, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "playback failed")
	}

	// Resume from the saved position before starting.
	var startMs int64
	if saved, ok := c.positions.Get(bookID); ok && saved.PositionMs > 0 {
		if err := c.transport.SeekTo(ctx, saved.PositionMs); err != nil {
			c.logger.Warn("failed to seek to saved position", "book_id", bookID, "error", err)
		} else {
			startMs = saved.PositionMs
		}
	}

	if err := c.transport.Play(ctx); err != nil {
		c.settleStopped()
		c.logger.Error("transport play failed", "book_id", bookID, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "playback failed")
	}

	c.mu.Lock()
	c.current = book
	c.sampleCount = 0
	c.mu.Unlock()

	c.publish(func(s *Snapshot) {
		s.Book = book
		s.IsPlaying = true
		s.PositionMs = startMs
		s.DurationMs = 0
	})
	return nil
}

// PlayPause toggles the transport. Pausing saves the position immediately.
func (c *Coordinator) PlayPause(ctx context.Context) error {
	status, err := c.transport.Status(ctx)
	if err != nil {
		return fmt.Errorf("read transport status: %w", err)
	}

	if status.Playing() {
		if err := c.transport.Pause(ctx); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		c.saveNow(ctx)
		c.publish(func(s *Snapshot) { s.IsPlaying = false })
		return nil
	}

	if err := c.transport.Play(ctx); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	c.publish(func(s *Snapshot) { s.IsPlaying = true })
	return nil
}

// Seek moves the playhead and saves the position immediately.
func (c *Coordinator) Seek(ctx context.Context, positionMs int64) error {
	if err := c.transport.SeekTo(ctx, positionMs); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	c.saveNow(ctx)
	c.publish(func(s *Snapshot) { s.PositionMs = positionMs })
	return nil
}

// Rewind skips back by the transport's own increment.
func (c *Coordinator) Rewind(ctx context.Context) error {
	return c.transport.SkipBack(ctx)
}

// FastForward skips forward by the transport's own increment.
func (c *Coordinator) FastForward(ctx context.Context) error {
	return c.transport.SkipForward(ctx)
}

// SkipNext plays the next queue entry. The queue is the catalog in its
// current listing order; navigation wraps and shuffle picks a uniformly
// random other entry.
func (c *Coordinator) SkipNext(ctx context.Context) error {
	target, err := c.queueTarget(ctx, 1)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}
	return c.Play(ctx, target)
}

// SkipPrevious plays the previous queue entry, or seeks to the start when
// there is no other entry to go back to.
func (c *Coordinator) SkipPrevious(ctx context.Context) error {
	target, err := c.queueTarget(ctx, -1)
	if err != nil {
		return err
	}
	if target == "" || target == c.currentBookID() {
		return c.Seek(ctx, 0)
	}
	return c.Play(ctx, target)
}

// queueTarget resolves the book ID one step away in the given direction, or
// "" when the queue is empty. A current track missing from the queue targets
// the first entry.
func (c *Coordinator) queueTarget(ctx context.Context, dir int) (string, error) {
	queue, err := c.catalog.ListBooks(ctx)
	if err != nil {
		return "", err
	}
	if len(queue) == 0 {
		return "", nil
	}

	currentID := c.currentBookID()
	idx := slices.IndexFunc(queue, func(b domain.Book) bool { return b.ID == currentID })

	if c.currentMode().Shuffle() && len(queue) > 1 {
		target := c.randIntN(len(queue) - 1)
		if idx >= 0 && target >= idx {
			target++
		}
		return queue[target].ID, nil
	}

	if idx < 0 {
		return queue[0].ID, nil
	}
	return queue[(idx+dir+len(queue))%len(queue)].ID, nil
}

// CycleMode advances one step in the repeat/shuffle cycle and pushes the
// setting to the transport.
func (c *Coordinator) CycleMode(ctx context.Context) (Mode, error) {
	c.mu.Lock()
	c.mode = c.mode.Next()
	mode := c.mode
	c.mu.Unlock()

	if err := c.transport.SetRepeat(ctx, mode.Repeat()); err != nil {
		c.logger.Warn("failed to set repeat mode", "mode", mode, "error", err)
	}
	if err := c.transport.SetShuffle(ctx, mode.Shuffle()); err != nil {
		c.logger.Warn("failed to set shuffle", "mode", mode, "error", err)
	}

	c.publish(func(s *Snapshot) { s.Mode = mode.String() })
	return mode, nil
}

// CycleSpeed advances to the next playback speed in the fixed cycle.
func (c *Coordinator) CycleSpeed(ctx context.Context) (float64, error) {
	c.mu.Lock()
	c.speed = NextSpeed(c.speed)
	speed := c.speed
	c.mu.Unlock()

	if err := c.transport.SetSpeed(ctx, speed); err != nil {
		return speed, fmt.Errorf("set speed: %w", err)
	}
	c.publish(func(s *Snapshot) { s.Speed = speed })
	return speed, nil
}

// Speed returns the current playback speed.
func (c *Coordinator) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Mode returns the current repeat/shuffle mode.
func (c *Coordinator) Mode() Mode {
	return c.currentMode()
}

// SetSleepTimer starts a countdown, replacing any running one. When it
// reaches zero the transport pauses and the remaining time clears.
func (c *Coordinator) SetSleepTimer(minutes int) error {
	if minutes <= 0 {
		return domainerrors.Validation("sleep timer minutes must be positive")
	}

	c.mu.Lock()
	if c.sleepCancel != nil {
		c.sleepCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.sleepCancel = cancel
	c.mu.Unlock()

	remaining := int64(minutes) * 60_000

	c.publish(func(s *Snapshot) { s.SleepRemainingMs = remaining })
	go c.sleepLoop(ctx, remaining)
	return nil
}

// ClearSleepTimer cancels the countdown without pausing playback.
func (c *Coordinator) ClearSleepTimer() {
	c.mu.Lock()
	if c.sleepCancel != nil {
		c.sleepCancel()
		c.sleepCancel = nil
	}
	c.mu.Unlock()

	c.publish(func(s *Snapshot) { s.SleepRemainingMs = 0 })
}

// sleepLoop counts down once per second, republishing the remaining time,
// and pauses the transport at zero.
func (c *Coordinator) sleepLoop(ctx context.Context, remainingMs int64) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remainingMs -= tickInterval.Milliseconds()
			if remainingMs > 0 {
				c.publish(func(s *Snapshot) { s.SleepRemainingMs = remainingMs })
				continue
			}

			c.mu.Lock()
			c.sleepCancel = nil
			c.mu.Unlock()

			pauseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.transport.Pause(pauseCtx); err != nil {
				c.logger.Warn("sleep timer failed to pause", "error", err)
			}
			c.saveNow(pauseCtx)
			cancel()

			c.publish(func(s *Snapshot) {
				s.SleepRemainingMs = 0
				s.IsPlaying = false
			})
			return
		}
	}
}

// sampleLoop polls the transport once per second while the coordinator is
// alive, mirroring position into the snapshot and persisting it after every
// ten active samples.
func (c *Coordinator) sampleLoop() {
	defer close(c.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Coordinator) sample() {
	ctx, cancel := context.WithTimeout(c.ctx, tickInterval)
	defer cancel()

	status, err := c.transport.Status(ctx)
	if err != nil {
		c.logger.Debug("failed to read transport status", "error", err)
		return
	}

	if !status.Playing() {
		c.mu.Lock()
		c.sampleCount = 0
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	bookID := ""
	if c.current != nil {
		bookID = c.current.ID
	}
	c.sampleCount++
	save := c.sampleCount >= savePeriodTicks
	if save {
		c.sampleCount = 0
	}
	c.mu.Unlock()

	c.publish(func(s *Snapshot) {
		s.IsPlaying = true
		s.PositionMs = status.PositionMs
		s.DurationMs = status.DurationMs
	})

	if save && bookID != "" {
		c.positions.Save(bookID, status.PositionMs, status.DurationMs)
	}
}

// saveNow persists the current track's position immediately. The position
// store drops samples without a positive position and duration, so a bad
// read here never clobbers a good saved position.
func (c *Coordinator) saveNow(ctx context.Context) {
	bookID := c.currentBookID()
	if bookID == "" {
		return
	}
	status, err := c.transport.Status(ctx)
	if err != nil {
		c.logger.Debug("failed to read transport status", "error", err)
		return
	}
	c.positions.Save(bookID, status.PositionMs, status.DurationMs)
}

// Close saves the current position one final time, stops the sampler and any
// sleep timer, and releases the transport.
func (c *Coordinator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.saveNow(ctx)

	c.mu.Lock()
	if c.sleepCancel != nil {
		c.sleepCancel()
		c.sleepCancel = nil
	}
	c.mu.Unlock()

	c.cancel()
	<-c.done
	return c.transport.Close()
}

// settleStopped publishes a not-playing snapshot after a failed play attempt.
func (c *Coordinator) settleStopped() {
	c.publish(func(s *Snapshot) { s.IsPlaying = false })
}

func (c *Coordinator) currentBookID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

func (c *Coordinator) currentMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// publish applies fn to a copy of the current snapshot and republishes it.
func (c *Coordinator) publish(fn func(*Snapshot)) {
	c.snapshot.Update(func(s Snapshot) Snapshot {
		fn(&s)
		return s
	})
}
