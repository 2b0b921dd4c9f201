package tracker

import (
	"context"
	"log"

	"github.com/subtools/showcasebot/internal/reddit"
)

// scanComments walks the top-level comments once and returns the post
// author's reply and the bot's own reply, if any. Deleted comments never
// match. With multiple qualifying comments only the first in feed order is
// returned; the scan short-circuits once both are found.
func scanComments(post *reddit.Post, botName string) (authorReply, botReply *reddit.Comment) {
	for _, c := range post.Comments {
		if c.Author == "" {
			continue
		}
		if authorReply == nil && c.Author == post.Author {
			authorReply = c
		}
		if botReply == nil && c.Author == botName {
			botReply = c
		}
		if authorReply != nil && botReply != nil {
			break
		}
	}
	return authorReply, botReply
}

// findReplyFrom looks one level under parent for a reply authored by who.
// Collapsed reply pages are expanded up to the configured bound first; if
// pages remain after that, the shortfall is logged, not failed.
func (t *Tracker) findReplyFrom(ctx context.Context, post *reddit.Post, parent *reddit.Comment, who string) (*reddit.Comment, error) {
	if who == "" {
		return nil, nil
	}
	if len(parent.MoreIDs) > 0 {
		if err := t.gw.LoadMoreReplies(ctx, post.Fullname, parent, t.cfg.MorePages); err != nil {
			return nil, err
		}
		if len(parent.MoreIDs) > 0 {
			log.Printf("[tracker] reply expansion under %s incomplete, %d ids left", parent.Fullname, len(parent.MoreIDs))
		}
	}
	for _, c := range parent.Replies {
		if c.Author != "" && c.Author == who {
			return c, nil
		}
	}
	return nil, nil
}
