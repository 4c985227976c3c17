package vrchat

import (
	"context"
	"net/http"
	"net/url"
)

// Balance returns the credit balance of userID.
func (c *Client) Balance(ctx context.Context, userID string) (*Balance, error) {
	var out Balance
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/user/{id}/balance",
		path:   "/user/" + url.PathEscape(userID) + "/balance",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
