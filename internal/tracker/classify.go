package tracker

import "github.com/subtools/showcasebot/internal/reddit"

func isFlairMatch(post *reddit.Post, flair string) bool {
	return post.Flair == flair
}

// isMetaEligible reports whether enforcement makes sense at all: link posts
// by a live author that no moderator has already approved. A post failing
// this is permanently irrelevant, whatever its flair.
func isMetaEligible(post *reddit.Post) bool {
	return !post.IsSelf && !post.Approved && post.Author != ""
}
