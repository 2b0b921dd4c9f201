// Package tracker owns the submission lifecycle: discovery of relevant
// posts, the per-post enforcement decision, and the reconciliation loop
// that re-checks, evicts, and adapts its polling interval.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/subtools/showcasebot/internal/bus"
	"github.com/subtools/showcasebot/internal/config"
	"github.com/subtools/showcasebot/internal/metrics"
	"github.com/subtools/showcasebot/internal/reddit"
)

// State of one tracked post. Ignored is terminal; only a discovery feed can
// resurrect an Ignored entry.
type State int

const (
	StateChecking State = iota
	StateCheckSlow
	StateIgnored
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateCheckSlow:
		return "check-slow"
	case StateIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

type trackedPost struct {
	id            string
	state         State
	noticedAt     time.Time
	lastCheckedAt time.Time
}

// Stats is the cycle-end snapshot consumed by heartbeat and status output.
type Stats struct {
	Tracked   int
	Checking  int
	CheckSlow int
	Ignored   int

	Warned   uint64
	Removed  uint64
	Approved uint64
	Nudged   uint64

	Cycles    uint64
	LastCycle time.Time
}

type Tracker struct {
	cfg *config.Config
	gw  Gateway
	bus *bus.Bus

	me    reddit.Identity
	posts map[string]*trackedPost

	warned   uint64
	removed  uint64
	approved uint64
	nudged   uint64
	cycles   uint64

	retry *backoff.ExponentialBackOff

	// injected in tests
	now   func() time.Time
	sleep func(context.Context, time.Duration)

	mu    sync.Mutex
	stats Stats
}

func New(cfg *config.Config, gw Gateway, b *bus.Bus) *Tracker {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = cfg.MinDelay()
	retry.MaxInterval = 3 * cfg.MaxDelay()
	return &Tracker{
		cfg:   cfg,
		gw:    gw,
		bus:   b,
		posts: make(map[string]*trackedPost),
		retry: retry,
		now:   time.Now,
		sleep: wait,
	}
}

// Run drives reconciliation cycles until ctx is cancelled or a fatal
// gateway fault (missing OAuth scope) surfaces. Transient faults abandon
// the cycle and back off; no partial-cycle checkpointing.
func (t *Tracker) Run(ctx context.Context) error {
	me, err := t.gw.Me(ctx)
	if err != nil {
		return fmt.Errorf("resolve bot identity: %w", err)
	}
	t.me = me
	log.Printf("[tracker] running as u/%s on r/%s", me.Name, t.cfg.Subreddit)

	if err := t.recoverRemovals(ctx); err != nil {
		if reddit.IsFatal(err) {
			return err
		}
		log.Printf("[tracker] removal recovery failed: %v", err)
	}

	for {
		delay, err := t.cycle(ctx)
		if err != nil {
			if reddit.IsFatal(err) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay = t.retry.NextBackOff()
			log.Printf("[tracker] cycle failed, backing off %s: %v", delay.Round(time.Second), err)
		} else {
			t.retry.Reset()
		}

		if t.cfg.Debug {
			log.Printf("[tracker] sleeping %s", delay.Round(time.Second))
		}
		t.sleep(ctx, delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// cycle runs one reconciliation pass and returns the next sleep interval.
func (t *Tracker) cycle(ctx context.Context) (time.Duration, error) {
	start := t.now()
	horizon := start.Add(-t.cfg.IgnoreOlder())

	created, err := t.scanNew(ctx, horizon)
	if err != nil {
		t.observeCycle(start, true)
		return 0, err
	}
	if err := t.scanFlairEdits(ctx, horizon); err != nil {
		t.observeCycle(start, true)
		return 0, err
	}

	for _, tp := range t.eligible(start) {
		if err := t.checkPost(ctx, tp); err != nil {
			t.observeCycle(start, true)
			return 0, err
		}
		tp.lastCheckedAt = start
	}

	t.evict(horizon)

	cycleDur := t.now().Sub(start)
	t.cycles++
	t.observeCycle(start, false)
	t.snapshot(start)
	return t.nextDelay(created, cycleDur), nil
}

// eligible returns the posts due for a check this cycle: everything in
// Checking, plus CheckSlow entries whose slow-recheck delay has elapsed.
func (t *Tracker) eligible(now time.Time) []*trackedPost {
	var due []*trackedPost
	for _, tp := range t.posts {
		switch tp.state {
		case StateChecking:
			due = append(due, tp)
		case StateCheckSlow:
			if !tp.lastCheckedAt.Add(t.cfg.SlowRecheck()).After(now) {
				due = append(due, tp)
			}
		}
	}
	return due
}

// checkPost refreshes relevance and, for candidates, runs the enforcement
// decision. A vanished post is ignored, not retried.
func (t *Tracker) checkPost(ctx context.Context, tp *trackedPost) error {
	post, err := t.gw.FetchPost(ctx, tp.id)
	if errors.Is(err, reddit.ErrNotFound) {
		log.Printf("[tracker] post %s vanished, ignoring", tp.id)
		tp.state = StateIgnored
		return nil
	}
	if err != nil {
		return err
	}

	if !isMetaEligible(post) {
		if t.cfg.Debug {
			log.Printf("[tracker] post %s not eligible, ignoring", tp.id)
		}
		tp.state = StateIgnored
		return nil
	}
	if !isFlairMatch(post, t.cfg.Flair) {
		// a mod may still fix the flair; recheck fast while the post is
		// young enough for enforcement to matter
		if t.now().Sub(post.CreatedAt) > t.cfg.WarnDelay()+t.cfg.RemoveDelay() {
			tp.state = StateCheckSlow
		} else {
			tp.state = StateChecking
		}
		return nil
	}

	next, err := t.decide(ctx, post)
	if err != nil {
		return err
	}
	tp.state = next
	return nil
}

// evict forgets entries past the retention horizon. Posts still in Checking
// are never dropped by age alone; they must reach Ignored first.
func (t *Tracker) evict(horizon time.Time) {
	for id, tp := range t.posts {
		if tp.state != StateChecking && tp.noticedAt.Before(horizon) {
			delete(t.posts, id)
			if t.cfg.Debug {
				log.Printf("[tracker] forgot %s (%s)", id, tp.state)
			}
		}
	}
}

// nextDelay adapts polling to community velocity: a quarter of the average
// time the community takes to produce pullLimit posts, minus the cycle's
// own duration, clamped to the configured bounds.
func (t *Tracker) nextDelay(created []time.Time, cycleDur time.Duration) time.Duration {
	maxDelay := t.cfg.MaxDelay()
	if len(created) < 2 {
		return maxDelay
	}
	newest, oldest := created[0], created[0]
	for _, ts := range created[1:] {
		if ts.After(newest) {
			newest = ts
		}
		if ts.Before(oldest) {
			oldest = ts
		}
	}
	avg := newest.Sub(oldest) / time.Duration(len(created)-1)
	target := avg*time.Duration(t.cfg.PullLimit)/4 - cycleDur
	if target > maxDelay {
		return maxDelay
	}
	if minDelay := t.cfg.MinDelay(); target < minDelay {
		return minDelay
	}
	return target
}

func (t *Tracker) report(action bus.Action, post *reddit.Post) {
	switch action {
	case bus.ActionWarned:
		t.warned++
	case bus.ActionRemoved:
		t.removed++
	case bus.ActionApproved:
		t.approved++
	case bus.ActionNudged:
		t.nudged++
	}
	metrics.CountAction(string(action))
	log.Printf("[tracker] %s %s by u/%s", action, post.ID, post.Author)
	if t.bus != nil {
		t.bus.Publish(bus.Event{
			Action:    action,
			PostID:    post.ID,
			Title:     post.Title,
			Author:    post.Author,
			Permalink: post.Permalink,
			At:        t.now(),
		})
	}
}

func (t *Tracker) observeCycle(start time.Time, failed bool) {
	metrics.ObserveCycle(t.now().Sub(start), failed)
}

func (t *Tracker) snapshot(now time.Time) {
	st := Stats{
		Warned:    t.warned,
		Removed:   t.removed,
		Approved:  t.approved,
		Nudged:    t.nudged,
		Cycles:    t.cycles,
		LastCycle: now,
	}
	for _, tp := range t.posts {
		st.Tracked++
		switch tp.state {
		case StateChecking:
			st.Checking++
		case StateCheckSlow:
			st.CheckSlow++
		case StateIgnored:
			st.Ignored++
		}
	}
	metrics.SetTracked("checking", st.Checking)
	metrics.SetTracked("check-slow", st.CheckSlow)
	metrics.SetTracked("ignored", st.Ignored)

	t.mu.Lock()
	t.stats = st
	t.mu.Unlock()
}

// Stats returns the snapshot taken at the end of the last cycle. The only
// tracker surface safe to call from other goroutines.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
