package reddit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Identity is the authenticated bot account.
type Identity struct {
	Name string `json:"name"`
}

// Post is a submission snapshot. The tracker fetches a fresh one every
// check; nothing here is cached across cycles.
type Post struct {
	ID        string
	Fullname  string // t3_<id>
	Title     string
	Author    string // empty when the account is deleted
	Flair     string
	Permalink string
	IsSelf    bool
	Approved  bool
	RemovedBy string // empty when the post is live
	CreatedAt time.Time

	// Top-level comments, populated by FetchPost / ResolvePermalink only.
	Comments []*Comment
}

// Comment is one node of the comment tree. MoreIDs holds the children of a
// collapsed "more comments" placeholder that has not been expanded yet.
type Comment struct {
	ID        string
	Fullname  string // t1_<id>
	ParentID  string // fullname of the post or parent comment
	Author    string // empty when deleted
	Body      string
	CreatedAt time.Time
	Replies   []*Comment
	MoreIDs   []string
}

// ModAction is one entry of the subreddit moderation log.
type ModAction struct {
	ID              string
	Action          string
	Details         string
	Moderator       string
	TargetPermalink string
	CreatedAt       time.Time
}

// Reddit wraps everything in kind/data envelopes ("Listing", "t1", "t3",
// "more"). The raw types below exist only for decoding.

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
}

type postData struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	FlairText  string  `json:"link_flair_text"`
	Permalink  string  `json:"permalink"`
	IsSelf     bool    `json:"is_self"`
	ApprovedBy string  `json:"approved_by"`
	BannedBy   string  `json:"banned_by"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ParentID   string          `json:"parent_id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"` // listing, or "" when absent
}

type moreData struct {
	Children []string `json:"children"`
}

type modActionData struct {
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	Details         string  `json:"details"`
	Moderator       string  `json:"mod"`
	TargetPermalink string  `json:"target_permalink"`
	CreatedUTC      float64 `json:"created_utc"`
}

const deletedAuthor = "[deleted]"

func fromUTC(sec float64) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

func decodePost(raw json.RawMessage) (*Post, error) {
	var d postData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	author := d.Author
	if author == deletedAuthor {
		author = ""
	}
	return &Post{
		ID:        d.ID,
		Fullname:  d.Name,
		Title:     d.Title,
		Author:    author,
		Flair:     d.FlairText,
		Permalink: d.Permalink,
		IsSelf:    d.IsSelf,
		Approved:  d.ApprovedBy != "",
		RemovedBy: d.BannedBy,
		CreatedAt: fromUTC(d.CreatedUTC),
	}, nil
}

// decodeCommentThing handles one child of a comment listing. A "more" child
// yields a nil comment and its collapsed IDs.
func decodeCommentThing(th thing) (*Comment, []string, error) {
	switch th.Kind {
	case "more":
		var d moreData
		if err := json.Unmarshal(th.Data, &d); err != nil {
			return nil, nil, fmt.Errorf("decode more: %w", err)
		}
		return nil, d.Children, nil
	case "t1":
		var d commentData
		if err := json.Unmarshal(th.Data, &d); err != nil {
			return nil, nil, fmt.Errorf("decode comment: %w", err)
		}
		author := d.Author
		if author == deletedAuthor {
			author = ""
		}
		c := &Comment{
			ID:        d.ID,
			Fullname:  d.Name,
			ParentID:  d.ParentID,
			Author:    author,
			Body:      d.Body,
			CreatedAt: fromUTC(d.CreatedUTC),
		}
		if len(d.Replies) > 0 && d.Replies[0] == '{' {
			var l thing
			if err := json.Unmarshal(d.Replies, &l); err != nil {
				return nil, nil, fmt.Errorf("decode replies: %w", err)
			}
			replies, more, err := decodeCommentListing(l.Data)
			if err != nil {
				return nil, nil, err
			}
			c.Replies = replies
			c.MoreIDs = more
		}
		return c, nil, nil
	default:
		return nil, nil, nil
	}
}

func decodeCommentListing(raw json.RawMessage) ([]*Comment, []string, error) {
	var l listingData
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, nil, fmt.Errorf("decode comment listing: %w", err)
	}
	var comments []*Comment
	var more []string
	for _, th := range l.Children {
		c, ids, err := decodeCommentThing(th)
		if err != nil {
			return nil, nil, err
		}
		if c != nil {
			comments = append(comments, c)
		}
		more = append(more, ids...)
	}
	return comments, more, nil
}
