package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/subtools/showcasebot/internal/reddit"
)

func TestScanNew_TracksInsideHorizon(t *testing.T) {
	gw := newFakeGateway()
	tr := newTestTracker(t, gw)
	horizon := testNow.Add(-12 * time.Hour)

	inside := showcasePost("new1", time.Hour)
	outside := showcasePost("old1", 13*time.Hour)
	gw.newPosts = []*reddit.Post{inside, outside}

	created, err := tr.scanNew(context.Background(), horizon)
	if err != nil {
		t.Fatalf("scanNew error: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created timestamps = %d, want the full pull (2)", len(created))
	}
	if _, ok := tr.posts["new1"]; !ok {
		t.Error("post inside the horizon should be tracked")
	}
	if _, ok := tr.posts["old1"]; ok {
		t.Error("post past the horizon should not be tracked")
	}
}

func TestTrack_Idempotent(t *testing.T) {
	gw := newFakeGateway()
	tr := newTestTracker(t, gw)

	tr.track("abc")
	first := tr.posts["abc"]
	noticed := first.noticedAt
	first.state = StateCheckSlow
	first.lastCheckedAt = testNow.Add(time.Minute)

	tr.track("abc")
	if got := tr.posts["abc"]; got != first {
		t.Fatal("re-discovery must not replace the tracked entry")
	}
	if first.state != StateCheckSlow {
		t.Errorf("state = %v, re-discovery must not reset CheckSlow", first.state)
	}
	if !first.noticedAt.Equal(noticed) {
		t.Error("noticedAt must never reset")
	}
}

func TestTrack_ResurrectsIgnoredOnly(t *testing.T) {
	gw := newFakeGateway()
	tr := newTestTracker(t, gw)

	tr.posts["abc"] = &trackedPost{id: "abc", state: StateIgnored, noticedAt: testNow.Add(-time.Hour)}
	tr.track("abc")
	if tr.posts["abc"].state != StateChecking {
		t.Errorf("state = %v, want ignored entry resurrected to checking", tr.posts["abc"].state)
	}
}

func TestScanFlairEdits(t *testing.T) {
	gw := newFakeGateway()
	tr := newTestTracker(t, gw)
	horizon := testNow.Add(-12 * time.Hour)

	reflaired := showcasePost("late", 2*time.Hour)
	gw.addPost(reflaired)
	gw.modlog[modActionFlairEdit] = []reddit.ModAction{
		{ // a flair edit on the tracked-able post
			Action: modActionFlairEdit, Details: flairEditDetail,
			Moderator: "human_mod", TargetPermalink: reflaired.Permalink,
			CreatedAt: testNow.Add(-time.Minute),
		},
		{ // other flair activity, wrong detail
			Action: modActionFlairEdit, Details: "flair_template",
			Moderator: "human_mod", TargetPermalink: reflaired.Permalink,
			CreatedAt: testNow.Add(-time.Minute),
		},
		{ // stale entry past the horizon
			Action: modActionFlairEdit, Details: flairEditDetail,
			Moderator: "human_mod", TargetPermalink: "/r/gamedev/comments/stale/post/",
			CreatedAt: testNow.Add(-13 * time.Hour),
		},
		{ // target deleted since; resolution fails soft
			Action: modActionFlairEdit, Details: flairEditDetail,
			Moderator: "human_mod", TargetPermalink: "/r/gamedev/comments/gone/post/",
			CreatedAt: testNow.Add(-time.Minute),
		},
	}

	if err := tr.scanFlairEdits(context.Background(), horizon); err != nil {
		t.Fatalf("scanFlairEdits error: %v", err)
	}
	if len(tr.posts) != 1 {
		t.Fatalf("tracked = %d, want only the re-flaired post", len(tr.posts))
	}
	if _, ok := tr.posts["late"]; !ok {
		t.Error("re-flaired post should be tracked")
	}
}

func TestRecoverRemovals(t *testing.T) {
	gw := newFakeGateway()
	tr := newTestTracker(t, gw)
	tr.me = gw.me

	mine := showcasePost("mine", 2*time.Hour)
	theirs := showcasePost("theirs", 2*time.Hour)
	gw.addPost(mine)
	gw.addPost(theirs)
	gw.modlog[modActionRemoveLink] = []reddit.ModAction{
		{
			Action: modActionRemoveLink, Moderator: "showcasebot",
			TargetPermalink: mine.Permalink, CreatedAt: testNow.Add(-time.Hour),
		},
		{
			Action: modActionRemoveLink, Moderator: "human_mod",
			TargetPermalink: theirs.Permalink, CreatedAt: testNow.Add(-time.Hour),
		},
	}

	if err := tr.recoverRemovals(context.Background()); err != nil {
		t.Fatalf("recoverRemovals error: %v", err)
	}
	if _, ok := tr.posts["mine"]; !ok {
		t.Error("bot's own removal should be re-tracked after restart")
	}
	if _, ok := tr.posts["theirs"]; ok {
		t.Error("another moderator's removal must not be tracked")
	}
}
