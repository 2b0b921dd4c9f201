package reddit

import (
	"errors"
	"fmt"
	"strings"
)

// RequiredScopes are the OAuth scopes the bot account must carry. Listed in
// the fatal error so a mis-scoped deployment is diagnosable from one log line.
var RequiredScopes = []string{
	"edit", "flair", "identity", "modflair", "modlog",
	"modmail", "modposts", "privatemessages", "read",
}

// ScopeError means the credentials lack a required OAuth scope. It is fatal:
// the daemon must stop rather than run partially capable.
type ScopeError struct {
	Detail string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("reddit: insufficient oauth scope (%s); required scopes: %s",
		e.Detail, strings.Join(RequiredScopes, ","))
}

// ErrNotFound marks a post or comment that no longer exists. The tracker
// treats it as "not relevant", never as a transient fault.
var ErrNotFound = errors.New("reddit: not found")

// IsFatal reports whether err must terminate the process instead of being
// retried at the reconciliation-loop boundary.
func IsFatal(err error) bool {
	var se *ScopeError
	return errors.As(err, &se)
}
