package vrchat

import (
	"context"
	"iter"
	"net/http"
)

// Friends returns one page of the account's friends. offline selects the
// offline list instead of the online one.
func (c *Client) Friends(ctx context.Context, offline bool, n, offset int) ([]LimitedUser, error) {
	q := pageQuery(n, offset)
	if offline {
		q.Set("offline", "true")
	}
	var out []LimitedUser
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/auth/user/friends",
		path:   "/auth/user/friends",
		query:  q,
	}, &out)
	return out, err
}

// AllFriends walks the friend list page by page.
func (c *Client) AllFriends(ctx context.Context, offline bool, opts PageOptions) iter.Seq2[LimitedUser, error] {
	return Paginate(ctx, func(ctx context.Context, n, offset int) ([]LimitedUser, error) {
		return c.Friends(ctx, offline, n, offset)
	}, opts)
}
