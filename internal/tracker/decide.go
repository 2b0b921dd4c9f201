package tracker

import (
	"context"
	"time"

	"github.com/subtools/showcasebot/internal/bus"
	"github.com/subtools/showcasebot/internal/reddit"
)

// decide inspects a candidate post fresh and applies the next enforcement
// step: warn after the warn delay, remove after the warning has stood for
// the remove delay, approve and clean up once the author complies. It keeps
// no state of its own; everything is re-read from the post each call.
func (t *Tracker) decide(ctx context.Context, post *reddit.Post) (State, error) {
	// a removal by anyone else is a human moderator decision; never contest it
	if post.RemovedBy != "" && post.RemovedBy != t.me.Name {
		return StateIgnored, nil
	}
	removedByBot := post.RemovedBy == t.me.Name

	authorReply, botReply := scanComments(post, t.me.Name)

	// compliance is terminal, whatever the prior warn/remove state
	if authorReply != nil {
		if removedByBot {
			if err := t.gw.ApprovePost(ctx, post.Fullname); err != nil {
				return 0, err
			}
			t.report(bus.ActionApproved, post)
		}
		if botReply != nil {
			if err := t.gw.DeleteComment(ctx, botReply.Fullname); err != nil {
				return 0, err
			}
		}
		return StateIgnored, nil
	}

	age := t.now().Sub(post.CreatedAt)
	if age < t.cfg.WarnDelay() {
		return StateChecking, nil
	}

	var botReplyAge time.Duration
	if botReply != nil {
		botReplyAge = t.now().Sub(botReply.CreatedAt)
		if err := t.maybeNudge(ctx, post, botReply); err != nil {
			return 0, err
		}
	}

	switch {
	case removedByBot && (botReply == nil || botReplyAge >= t.cfg.RemoveDelay()):
		// already enforced; wait for compliance at the slow cadence
		return StateCheckSlow, nil

	case botReply == nil:
		warning, err := t.gw.Reply(ctx, post.Fullname, t.cfg.Warn.Message)
		if err != nil {
			return 0, err
		}
		if err := t.gw.Distinguish(ctx, warning.Fullname, true); err != nil {
			return 0, err
		}
		t.report(bus.ActionWarned, post)
		return StateChecking, nil

	case botReplyAge >= t.cfg.RemoveDelay():
		if err := t.gw.DeleteComment(ctx, botReply.Fullname); err != nil {
			return 0, err
		}
		if err := t.gw.RemovePost(ctx, post.Fullname); err != nil {
			return 0, err
		}
		if err := t.gw.SendRemovalMessage(ctx, post.Fullname, t.cfg.Remove.Message); err != nil {
			return 0, err
		}
		t.report(bus.ActionRemoved, post)
		// stay on the fast cadence; the removed-by-bot branch takes over
		// on the next pass
		return StateChecking, nil

	default:
		// warned, grace period still running
		return StateChecking, nil
	}
}

// maybeNudge handles an author who replied to the warning comment instead
// of posting top-level. The nudge is sent once: its own presence under the
// author's reply is the idempotency marker.
func (t *Tracker) maybeNudge(ctx context.Context, post *reddit.Post, botReply *reddit.Comment) error {
	authorChild, err := t.findReplyFrom(ctx, post, botReply, post.Author)
	if err != nil || authorChild == nil {
		return err
	}
	botChild, err := t.findReplyFrom(ctx, post, authorChild, t.me.Name)
	if err != nil || botChild != nil {
		return err
	}
	if _, err := t.gw.Reply(ctx, authorChild.Fullname, t.cfg.NudgeMessage); err != nil {
		return err
	}
	t.report(bus.ActionNudged, post)
	return nil
}
