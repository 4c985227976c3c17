package vrchat

import (
	"context"
	"net/http"
	"net/url"
)

// SearchWorlds searches worlds by name.
func (c *Client) SearchWorlds(ctx context.Context, query string, n, offset int) ([]LimitedWorld, error) {
	q := pageQuery(n, offset)
	q.Set("search", query)
	var out []LimitedWorld
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/worlds",
		path:   "/worlds",
		query:  q,
	}, &out)
	return out, err
}

// GetWorld fetches a world by id.
func (c *Client) GetWorld(ctx context.Context, id string) (*World, error) {
	var out World
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/worlds/{id}",
		path:   "/worlds/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
