package vrchat

import (
	"context"
	"net/http"
	"net/url"
)

// SearchGroups searches groups by name or short code.
func (c *Client) SearchGroups(ctx context.Context, query string, n, offset int) ([]LimitedGroup, error) {
	q := pageQuery(n, offset)
	q.Set("query", query)
	var out []LimitedGroup
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/groups",
		path:   "/groups",
		query:  q,
	}, &out)
	return out, err
}

// GetGroup fetches a group by id.
func (c *Client) GetGroup(ctx context.Context, id string) (*Group, error) {
	var out Group
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/groups/{id}",
		path:   "/groups/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
