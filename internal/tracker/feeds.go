package tracker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/subtools/showcasebot/internal/reddit"
)

const (
	modActionFlairEdit  = "editflair"
	modActionRemoveLink = "removelink"
	flairEditDetail     = "flair_edit"
)

// scanNew pulls the newest posts and tracks those inside the retention
// horizon. The created timestamps of the whole pull feed the adaptive delay.
func (t *Tracker) scanNew(ctx context.Context, horizon time.Time) ([]time.Time, error) {
	posts, err := t.gw.ListNewPosts(ctx, t.cfg.Subreddit, t.cfg.PullLimit)
	if err != nil {
		return nil, err
	}
	created := make([]time.Time, 0, len(posts))
	for _, p := range posts {
		created = append(created, p.CreatedAt)
		if p.CreatedAt.After(horizon) {
			t.track(p.ID)
		}
	}
	return created, nil
}

// scanFlairEdits picks up posts re-flaired after /new passed them by, and
// resurrects entries the bot had given up on.
func (t *Tracker) scanFlairEdits(ctx context.Context, horizon time.Time) error {
	actions, err := t.gw.ListModLog(ctx, t.cfg.Subreddit, modActionFlairEdit, "", t.cfg.PullLimit)
	if err != nil {
		return err
	}
	return t.trackActions(ctx, actions, horizon, flairEditDetail)
}

// recoverRemovals rebuilds tracking of the bot's own recent removals after
// a restart, so in-flight enforcement is not silently abandoned.
func (t *Tracker) recoverRemovals(ctx context.Context) error {
	horizon := t.now().Add(-t.cfg.IgnoreOlder())
	actions, err := t.gw.ListModLog(ctx, t.cfg.Subreddit, modActionRemoveLink, t.me.Name, t.cfg.PullLimit)
	if err != nil {
		return err
	}
	return t.trackActions(ctx, actions, horizon, "")
}

func (t *Tracker) trackActions(ctx context.Context, actions []reddit.ModAction, horizon time.Time, detail string) error {
	for _, a := range actions {
		if !a.CreatedAt.After(horizon) {
			continue
		}
		if detail != "" && a.Details != detail {
			continue
		}
		post, err := t.gw.ResolvePermalink(ctx, a.TargetPermalink)
		if errors.Is(err, reddit.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		t.track(post.ID)
	}
	return nil
}

// track adds a post to the map, or resurrects an Ignored entry. Checking
// and CheckSlow entries are left untouched; noticedAt never resets.
func (t *Tracker) track(id string) {
	if tp, ok := t.posts[id]; ok {
		if tp.state == StateIgnored {
			tp.state = StateChecking
			log.Printf("[tracker] resurrected %s", id)
		}
		return
	}
	now := t.now()
	t.posts[id] = &trackedPost{
		id:            id,
		state:         StateChecking,
		noticedAt:     now,
		lastCheckedAt: now,
	}
	if t.cfg.Debug {
		log.Printf("[tracker] found %s", id)
	}
}
