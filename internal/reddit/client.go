package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/subtools/showcasebot/internal/metrics"
)

// Client talks to the Reddit OAuth API with a pre-issued bearer token.
// Token refresh is out of scope; a stale token surfaces as transient 401s.
type Client struct {
	baseURL   string
	userAgent string
	token     string
	http      *http.Client
	limiter   *rate.Limiter
	debug     bool

	meOnce sync.Once
	me     Identity
	meErr  error
}

type Options struct {
	UserAgent   string
	AccessToken string
	BaseURL     string
	Debug       bool

	// HTTPClient overrides the retrying default (used in tests).
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 3
		rc.Logger = nil
		httpClient = rc.StandardClient()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://oauth.reddit.com"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: opts.UserAgent,
		token:     opts.AccessToken,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(1), 4),
		debug:     opts.Debug,
	}
}

// Me returns the bot's own identity, resolved once per process.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	c.meOnce.Do(func() {
		var id Identity
		if err := c.get(ctx, "/api/v1/me", nil, &id); err != nil {
			c.meErr = fmt.Errorf("fetch identity: %w", err)
			return
		}
		c.me = id
	})
	return c.me, c.meErr
}

func (c *Client) ListNewPosts(ctx context.Context, subreddit string, limit int) ([]*Post, error) {
	q := url.Values{"limit": {fmt.Sprint(limit)}, "raw_json": {"1"}}
	var l thing
	if err := c.get(ctx, "/r/"+subreddit+"/new", q, &l); err != nil {
		return nil, fmt.Errorf("list new posts: %w", err)
	}
	return decodePostListing(l.Data)
}

// ListModLog returns recent moderation log entries, newest first, optionally
// filtered to a single action type and moderator name.
func (c *Client) ListModLog(ctx context.Context, subreddit, action, moderator string, limit int) ([]ModAction, error) {
	q := url.Values{"limit": {fmt.Sprint(limit)}}
	if action != "" {
		q.Set("type", action)
	}
	if moderator != "" {
		q.Set("mod", moderator)
	}
	var l thing
	if err := c.get(ctx, "/r/"+subreddit+"/about/log", q, &l); err != nil {
		return nil, fmt.Errorf("list mod log: %w", err)
	}
	var ld listingData
	if err := json.Unmarshal(l.Data, &ld); err != nil {
		return nil, fmt.Errorf("decode mod log: %w", err)
	}
	actions := make([]ModAction, 0, len(ld.Children))
	for _, th := range ld.Children {
		var d modActionData
		if err := json.Unmarshal(th.Data, &d); err != nil {
			return nil, fmt.Errorf("decode mod action: %w", err)
		}
		actions = append(actions, ModAction{
			ID:              d.ID,
			Action:          d.Action,
			Details:         d.Details,
			Moderator:       d.Moderator,
			TargetPermalink: d.TargetPermalink,
			CreatedAt:       fromUTC(d.CreatedUTC),
		})
	}
	return actions, nil
}

// FetchPost returns the post and its top-level comment tree (one reply level
// materialized, deeper pagination left as MoreIDs).
func (c *Client) FetchPost(ctx context.Context, id string) (*Post, error) {
	return c.fetchThread(ctx, "/comments/"+id)
}

// ResolvePermalink loads the post a mod-log entry points at.
func (c *Client) ResolvePermalink(ctx context.Context, permalink string) (*Post, error) {
	return c.fetchThread(ctx, strings.TrimRight(permalink, "/"))
}

func (c *Client) fetchThread(ctx context.Context, path string) (*Post, error) {
	q := url.Values{"limit": {"100"}, "depth": {"3"}, "raw_json": {"1"}}
	var pair []thing
	if err := c.get(ctx, path, q, &pair); err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("fetch post: unexpected response shape (%d listings)", len(pair))
	}
	posts, err := decodePostListing(pair[0].Data)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	post := posts[0]
	comments, more, err := decodeCommentListing(pair[1].Data)
	if err != nil {
		return nil, err
	}
	if len(more) > 0 && c.debug {
		log.Printf("[reddit] post %s has %d unexpanded top-level comments", post.ID, len(more))
	}
	post.Comments = comments
	return post, nil
}

// Reply posts a comment under the given post or comment fullname.
func (c *Client) Reply(ctx context.Context, parentFullname, text string) (*Comment, error) {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {parentFullname},
		"text":     {text},
	}
	var resp jsonResponse
	if err := c.postForm(ctx, "/api/comment", form, &resp); err != nil {
		return nil, fmt.Errorf("reply to %s: %w", parentFullname, err)
	}
	for _, th := range resp.JSON.Data.Things {
		cm, _, err := decodeCommentThing(th)
		if err != nil {
			return nil, err
		}
		if cm != nil {
			return cm, nil
		}
	}
	return nil, fmt.Errorf("reply to %s: no comment in response", parentFullname)
}

func (c *Client) Distinguish(ctx context.Context, commentFullname string, sticky bool) error {
	form := url.Values{
		"api_type": {"json"},
		"id":       {commentFullname},
		"how":      {"yes"},
		"sticky":   {fmt.Sprint(sticky)},
	}
	if err := c.postForm(ctx, "/api/distinguish", form, nil); err != nil {
		return fmt.Errorf("distinguish %s: %w", commentFullname, err)
	}
	return nil
}

func (c *Client) DeleteComment(ctx context.Context, commentFullname string) error {
	form := url.Values{"id": {commentFullname}}
	if err := c.postForm(ctx, "/api/del", form, nil); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentFullname, err)
	}
	return nil
}

func (c *Client) RemovePost(ctx context.Context, postFullname string) error {
	form := url.Values{"id": {postFullname}, "spam": {"false"}}
	if err := c.postForm(ctx, "/api/remove", form, nil); err != nil {
		return fmt.Errorf("remove post %s: %w", postFullname, err)
	}
	return nil
}

func (c *Client) ApprovePost(ctx context.Context, postFullname string) error {
	form := url.Values{"id": {postFullname}}
	if err := c.postForm(ctx, "/api/approve", form, nil); err != nil {
		return fmt.Errorf("approve post %s: %w", postFullname, err)
	}
	return nil
}

// SendRemovalMessage sends the public removal reason for a removed post.
func (c *Client) SendRemovalMessage(ctx context.Context, postFullname, text string) error {
	body := map[string]any{
		"item_ids": []string{postFullname},
		"message":  text,
		"title":    "Post removed",
		"type":     "public",
	}
	if err := c.postJSON(ctx, "/api/v1/modactions/removal_link_message", body, nil); err != nil {
		return fmt.Errorf("send removal message for %s: %w", postFullname, err)
	}
	return nil
}

// LoadMoreReplies expands collapsed reply placeholders under parent, up to
// maxPages batches. Remaining MoreIDs after the bound are kept (and the
// caller logs, rather than fails, the incomplete expansion).
func (c *Client) LoadMoreReplies(ctx context.Context, postFullname string, parent *Comment, maxPages int) error {
	for page := 0; page < maxPages && len(parent.MoreIDs) > 0; page++ {
		batch := parent.MoreIDs
		if len(batch) > 100 {
			batch = batch[:100]
		}
		form := url.Values{
			"api_type": {"json"},
			"link_id":  {postFullname},
			"children": {strings.Join(batch, ",")},
		}
		var resp jsonResponse
		if err := c.postForm(ctx, "/api/morechildren", form, &resp); err != nil {
			return fmt.Errorf("load more replies: %w", err)
		}
		parent.MoreIDs = parent.MoreIDs[len(batch):]
		for _, th := range resp.JSON.Data.Things {
			cm, ids, err := decodeCommentThing(th)
			if err != nil {
				return err
			}
			if cm != nil && cm.ParentID == parent.Fullname {
				parent.Replies = append(parent.Replies, cm)
			}
			parent.MoreIDs = append(parent.MoreIDs, ids...)
		}
	}
	return nil
}

type jsonResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func decodePostListing(raw json.RawMessage) ([]*Post, error) {
	var ld listingData
	if err := json.Unmarshal(raw, &ld); err != nil {
		return nil, fmt.Errorf("decode post listing: %w", err)
	}
	posts := make([]*Post, 0, len(ld.Children))
	for _, th := range ld.Children {
		if th.Kind != "t3" {
			continue
		}
		p, err := decodePost(th.Data)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	if c.debug {
		log.Printf("[reddit] %s %s", req.Method, req.URL.Path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CountGatewayError()
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	// a 404 is an expected outcome (deleted target), not a gateway fault
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrNotFound)
	}
	if resp.StatusCode == http.StatusForbidden {
		metrics.CountGatewayError()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		auth := resp.Header.Get("Www-Authenticate")
		if strings.Contains(auth, "insufficient_scope") ||
			strings.Contains(string(body), "insufficient_scope") {
			return &ScopeError{Detail: auth}
		}
		return fmt.Errorf("%s %s: forbidden", req.Method, req.URL.Path)
	}
	if resp.StatusCode >= 400 {
		metrics.CountGatewayError()
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
