package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/logger"
)

// loginRequest is the login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse holds the token when the API returns it in the body.
type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

// Authenticate exchanges the configured credentials for an access token.
func (c *Client) Authenticate(ctx context.Context, cfg *config.Configuration) (string, error) {
	if cfg == nil {
		return "", errConfigIsNotSet
	}

	if !cfg.Deployable() {
		return "", config.ErrNotDeployable
	}

	payload, err := json.Marshal(loginRequest{
		Email:    cfg.Credentials.Email,
		Password: cfg.Credentials.Password,
	})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, cfg.BaseURL()+loginPath, bytes.NewReader(payload), cfg)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	logger.InfoKV(ctx, "Authenticating", "host", cfg.Host, "email", cfg.Credentials.Email)

	response, body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if token := strings.TrimSpace(response.Header.Get(HeaderAuthToken)); token != "" {
		return token, nil
	}

	var decoded loginResponse
	if err = json.Unmarshal(body, &decoded); err == nil && decoded.AuthToken != "" {
		return decoded.AuthToken, nil
	}

	return "", ErrTokenMissing
}
