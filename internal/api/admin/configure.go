package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/logger"
)

// Reconfigure sends the collected app settings to the installed module.
func (c *Client) Reconfigure(ctx context.Context, cfg *config.Configuration) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if !cfg.Authenticated() {
		return errNotAuthenticated
	}

	settings := cfg.AppConfig
	if settings == nil {
		settings = map[string]string{}
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode app configuration: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, appURL(cfg)+configurationPath, bytes.NewReader(payload), cfg)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	logger.InfoKV(ctx, "Applying app configuration", "settings", len(settings))

	if _, _, err = c.do(req); err != nil {
		return fmt.Errorf("configure app: %w", err)
	}

	logger.Info(ctx, "Completed app configuration")

	return nil
}
