package vrchat

import (
	"context"
	"net/http"
	"net/url"
)

// SearchUsers searches users by display name.
func (c *Client) SearchUsers(ctx context.Context, query string, n, offset int) ([]LimitedUser, error) {
	q := pageQuery(n, offset)
	q.Set("search", query)
	var out []LimitedUser
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/users",
		path:   "/users",
		query:  q,
	}, &out)
	return out, err
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/users/{id}",
		path:   "/users/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
