package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/pkg/eventbus"
	"github.com/iota-uz/onboarding/pkg/logging"
)

// DraftSource yields the draft to persist. busy asks the saver to retry
// later; ok false means nothing should be stored.
type DraftSource interface {
	DraftSnapshot() (d draft.Draft, busy bool, ok bool)
}

type AutoSaverOptions struct {
	Repo     draft.Repository
	Debounce time.Duration
	Timeout  time.Duration
	Bus      eventbus.EventBus
	Logger   *logrus.Entry
	Now      func() time.Time
}

// AutoSaver persists drafts after edits settle. Each key has at most one
// pending timer; a new edit restarts it.
type AutoSaver struct {
	repo     draft.Repository
	debounce time.Duration
	timeout  time.Duration
	logger   *logrus.Entry
	now      func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped map[string]struct{}
	wg      sync.WaitGroup
	unsub   []func()
}

func NewAutoSaver(opts AutoSaverOptions) *AutoSaver {
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &AutoSaver{
		repo:     opts.Repo,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		logger:   opts.Logger.WithField("component", "autosave"),
		now:      opts.Now,
		timers:   map[string]*time.Timer{},
		stopped:  map[string]struct{}{},
	}
	if opts.Bus != nil {
		a.unsub = append(a.unsub,
			opts.Bus.Subscribe(a.onSubmitted),
			opts.Bus.Subscribe(a.onCancelled),
		)
	}
	return a
}

// Schedule (re)arms the timer of key. Scheduling a stopped key revives it.
func (a *AutoSaver) Schedule(key string, src DraftSource) {
	if a.repo == nil || key == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.stopped, key)
	if t, ok := a.timers[key]; ok {
		t.Stop()
	}
	a.timers[key] = time.AfterFunc(a.debounce, func() { a.fire(key, src) })
}

func (a *AutoSaver) fire(key string, src DraftSource) {
	a.mu.Lock()
	if _, gone := a.stopped[key]; gone {
		a.mu.Unlock()
		return
	}
	delete(a.timers, key)
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	d, busy, ok := src.DraftSnapshot()
	if !ok {
		recordAutosave("skipped")
		return
	}
	if busy {
		recordAutosave("deferred")
		a.Schedule(key, src)
		return
	}
	d.Key = key
	d.SavedAt = a.now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.repo.Save(ctx, d); err != nil {
		recordAutosave("error")
		a.logger.WithError(err).WithField("draft", key).Warn("autosave: draft not stored")
		return
	}
	recordAutosave("saved")
}

// Stop cancels the pending save of key.
func (a *AutoSaver) Stop(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[key]; ok {
		t.Stop()
		delete(a.timers, key)
	}
	a.stopped[key] = struct{}{}
}

// Clear stops key and removes its stored draft.
func (a *AutoSaver) Clear(ctx context.Context, key string) error {
	a.Stop(key)
	if a.repo == nil || key == "" {
		return nil
	}
	return a.repo.Delete(ctx, key)
}

func (a *AutoSaver) onSubmitted(ev SubmittedEvent) {
	if ev.DraftKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.Clear(ctx, ev.DraftKey); err != nil {
		a.logger.WithError(err).WithField("draft", ev.DraftKey).Warn("autosave: draft not cleared after submit")
	}
}

func (a *AutoSaver) onCancelled(ev CancelledEvent) {
	if ev.DraftKey != "" {
		a.Stop(ev.DraftKey)
	}
}

// Close stops every timer and waits for saves in flight.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	for key, t := range a.timers {
		t.Stop()
		a.stopped[key] = struct{}{}
	}
	a.timers = map[string]*time.Timer{}
	unsub := a.unsub
	a.unsub = nil
	a.mu.Unlock()
	for _, fn := range unsub {
		fn()
	}
	a.wg.Wait()
}
