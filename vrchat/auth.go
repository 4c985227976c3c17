package vrchat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CurrentUser fetches the logged-in account. It sends the client's
// credentials as HTTP Basic auth; when the cookie jar already holds a valid
// session the upstream ignores them.
//
// When the account still needs a second factor the upstream answers 200 with
// a list of methods instead of a user; that is returned as an *APIError with
// Status 200 whose Reason names the challenge (see ReasonEmailTwoFactor and
// ReasonTwoFactor).
func (c *Client) CurrentUser(ctx context.Context) (*CurrentUser, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/auth/user",
		path:   "/auth/user",
		basic:  true,
	})
	if err != nil {
		return nil, err
	}

	var pending struct {
		RequiresTwoFactorAuth []string `json:"requiresTwoFactorAuth"`
	}
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("decoding /auth/user: %w", err)
	}
	if len(pending.RequiresTwoFactorAuth) > 0 {
		return nil, twoFactorError(pending.RequiresTwoFactorAuth, data)
	}

	var user CurrentUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decoding /auth/user: %w", err)
	}
	return &user, nil
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// VerifyEmailCode submits a code that was emailed to the account owner.
func (c *Client) VerifyEmailCode(ctx context.Context, code string) error {
	return c.verify(ctx, "/auth/twofactorauth/emailotp/verify", code)
}

// VerifyTOTPCode submits a code from an authenticator app.
func (c *Client) VerifyTOTPCode(ctx context.Context, code string) error {
	return c.verify(ctx, "/auth/twofactorauth/totp/verify", code)
}

func (c *Client) verify(ctx context.Context, path, code string) error {
	var resp verifyResponse
	err := c.getJSON(ctx, request{
		method: http.MethodPost,
		route:  path,
		path:   path,
		body:   verifyRequest{Code: code},
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Verified {
		return ErrCodeRejected
	}
	return nil
}

// Logout invalidates the upstream session held in the cookie jar.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		route:  "/logout",
		path:   "/logout",
	})
	return err
}
