package vrchat

import (
	"context"
	"net/http"
)

// Notifications returns one page of the account's notifications.
func (c *Client) Notifications(ctx context.Context, n, offset int) ([]Notification, error) {
	var out []Notification
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		route:  "/auth/user/notifications",
		path:   "/auth/user/notifications",
		query:  pageQuery(n, offset),
	}, &out)
	return out, err
}
