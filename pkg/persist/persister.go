package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/model"
)

// DefaultDebounce is how long a Persister waits after the last change
// before writing a snapshot.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by Start on a running Persister.
	ErrAlreadyStarted = errors.New("persist: already started")

	// ErrNotStarted is returned by Flush before Start.
	ErrNotStarted = errors.New("persist: not started")
)

// Option configures a Persister.
type Option func(*Persister)

// WithKey sets the storage key. Default: the model name.
func WithKey(key string) Option {
	return func(p *Persister) {
		p.key = key
	}
}

// WithDebounce sets the quiet period before a save.
// Zero or negative saves on every change.
func WithDebounce(d time.Duration) Option {
	return func(p *Persister) {
		p.debounce = d
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(clock clockz.Clock) Option {
	return func(p *Persister) {
		p.clock = clock
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Persister) {
		p.logger = logger
	}
}

// Persister keeps a model's state in a Storage.
//
// Start hydrates the model from its stored snapshot and then writes a new
// snapshot once changes have been quiet for the debounce period. Stop writes
// any pending change before returning.
type Persister struct {
	target   model.Inspectable
	storage  Storage
	key      string
	debounce time.Duration
	clock    clockz.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	unwatch func()
	cancel  context.CancelFunc
	stop    chan struct{}
	done    chan struct{}
	changes chan uint64

	// saveMu serializes writes so an older snapshot never lands after a newer one.
	saveMu    sync.Mutex
	saved     uint64
	savedOnce bool
}

// New creates a Persister for target. It does nothing until Start.
func New(target model.Inspectable, storage Storage, opts ...Option) *Persister {
	p := &Persister{
		target:   target,
		storage:  storage,
		key:      target.Name(),
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "persist", "model", target.Name(), "key", p.key)
	return p
}

// Key returns the storage key.
func (p *Persister) Key() string { return p.key }

// Start hydrates the model and begins watching it for changes.
// A missing snapshot leaves the model's initial state in place.
// The save loop runs until ctx is canceled or Stop is called; either way a
// change still waiting for its debounce is written before the loop exits.
func (p *Persister) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyStarted
	}

	if err := p.hydrate(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.changes = make(chan uint64, 1)
	p.running = true

	changes := p.changes
	p.unwatch = p.target.Watch(func(version uint64) {
		// Coalesce: the loop only needs to know that something changed.
		select {
		case changes <- version:
		default:
		}
	})

	go p.loop(loopCtx, p.stop, p.done)
	return nil
}

func (p *Persister) hydrate(ctx context.Context) error {
	data, err := p.storage.Load(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		p.logger.Debug("no snapshot")
		p.markSaved(p.target.Version())
		return nil
	}
	if err != nil {
		err = storageError("load", p.key, err)
		p.failed(ctx, err)
		return err
	}

	if err := p.target.Restore(data); err != nil {
		p.failed(ctx, err)
		return err
	}

	version := p.target.Version()
	p.markSaved(version)
	p.logger.Info("snapshot restored", "version", version, "size", len(data))
	capitan.Emit(ctx, SnapshotRestored,
		KeyModel.Field(p.target.Name()),
		KeyKey.Field(p.key),
		KeyVersion.Field(int(version)),
		KeySize.Field(len(data)),
	)
	return nil
}

func (p *Persister) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var (
		timer   clockz.Timer
		pending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			p.finish(ctx, timer, pending)
			return

		case <-stop:
			p.finish(ctx, timer, pending)
			return

		case <-p.changes:
			if p.debounce <= 0 {
				_ = p.save(ctx) //nolint:errcheck // reported via logger and SnapshotFailed
				continue
			}
			pending = true

			if timer == nil {
				timer = p.clock.NewTimer(p.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(p.debounce)
			}

		case <-timerC:
			if pending {
				_ = p.save(ctx) //nolint:errcheck // reported via logger and SnapshotFailed
				pending = false
			}
		}
	}
}

// finish writes a change still waiting for its debounce when the loop exits.
func (p *Persister) finish(ctx context.Context, timer clockz.Timer, pending bool) {
	if timer != nil {
		timer.Stop()
	}
	select {
	case <-p.changes:
		pending = true
	default:
	}
	if pending {
		_ = p.save(context.WithoutCancel(ctx)) //nolint:errcheck // reported via logger and SnapshotFailed
	}
}

// Flush writes the current state immediately if it changed since the last save.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if !running {
		return ErrNotStarted
	}
	return p.save(ctx)
}

// Stop stops watching the model, waits for the save loop to exit and writes
// any change not saved yet, including changes made after the Start context
// was canceled. Stop on a stopped Persister is a no-op.
func (p *Persister) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.unwatch()
	close(p.stop)
	done, cancel := p.done, p.cancel
	p.mu.Unlock()

	<-done
	cancel()
	_ = p.save(context.Background()) //nolint:errcheck // reported via logger and SnapshotFailed
}

// Saved returns the model version of the last written snapshot.
func (p *Persister) Saved() uint64 {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	return p.saved
}

func (p *Persister) markSaved(version uint64) {
	p.saveMu.Lock()
	p.saved, p.savedOnce = version, true
	p.saveMu.Unlock()
}

func (p *Persister) save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	version := p.target.Version()
	if p.savedOnce && version == p.saved {
		return nil
	}

	data, err := p.target.Snapshot()
	if err != nil {
		p.failed(ctx, err)
		return err
	}
	if err := p.storage.Save(ctx, p.key, data); err != nil {
		err = storageError("save", p.key, err)
		p.failed(ctx, err)
		return err
	}

	p.saved, p.savedOnce = version, true
	p.logger.Debug("snapshot saved", "version", version, "size", len(data))
	capitan.Emit(ctx, SnapshotSaved,
		KeyModel.Field(p.target.Name()),
		KeyKey.Field(p.key),
		KeyVersion.Field(int(version)),
		KeySize.Field(len(data)),
	)
	return nil
}

func (p *Persister) failed(ctx context.Context, err error) {
	p.logger.Error("snapshot failed", "error", err)
	capitan.Emit(ctx, SnapshotFailed,
		KeyModel.Field(p.target.Name()),
		KeyKey.Field(p.key),
		KeyError.Field(err.Error()),
	)
}

func storageError(op, key string, err error) error {
	return vmerrors.New("M022").
		WithDetailf("%s %q", op, key).
		Wrap(err)
}
