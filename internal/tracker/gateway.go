package tracker

import (
	"context"

	"github.com/subtools/showcasebot/internal/reddit"
)

// Gateway is the slice of the forum API the tracker consumes. The concrete
// implementation is *reddit.Client; tests substitute a fake.
type Gateway interface {
	Me(ctx context.Context) (reddit.Identity, error)

	ListNewPosts(ctx context.Context, subreddit string, limit int) ([]*reddit.Post, error)
	ListModLog(ctx context.Context, subreddit, action, moderator string, limit int) ([]reddit.ModAction, error)
	FetchPost(ctx context.Context, id string) (*reddit.Post, error)
	ResolvePermalink(ctx context.Context, permalink string) (*reddit.Post, error)
	LoadMoreReplies(ctx context.Context, postFullname string, parent *reddit.Comment, maxPages int) error

	Reply(ctx context.Context, parentFullname, text string) (*reddit.Comment, error)
	Distinguish(ctx context.Context, commentFullname string, sticky bool) error
	DeleteComment(ctx context.Context, commentFullname string) error
	RemovePost(ctx context.Context, postFullname string) error
	SendRemovalMessage(ctx context.Context, postFullname, text string) error
	ApprovePost(ctx context.Context, postFullname string) error
}
