package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/logger"
)

// Multipart field names of the deployment request.
const (
	FieldFile               = "file"
	FieldKeepPreviousConfig = "keep_previous_config"
)

// uploadFilename is the name the archive is sent under.
const uploadFilename = "app.zip"

// Upload streams the packaged module to the admin API. It returns keep on
// any status from 200 to 300 and a *StatusError with the raw body otherwise.
// Transport failures are returned as they are.
func (c *Client) Upload(
	ctx context.Context,
	artifact io.Reader,
	keep bool,
	cfg *config.Configuration,
) (bool, error) {
	if cfg == nil {
		return false, errConfigIsNotSet
	}

	if !cfg.Authenticated() {
		return false, errNotAuthenticated
	}

	reader, writer := io.Pipe()
	form := multipart.NewWriter(writer)

	req, err := c.newRequest(ctx, http.MethodPut, appURL(cfg), reader, cfg)
	if err != nil {
		return false, err
	}

	req.Header.Set("Content-Type", form.FormDataContentType())

	logger.InfoKV(ctx, "Started install",
		"host", cfg.Host,
		"company_id", cfg.CompanyID,
		"keep_previous_config", keep)

	done := make(chan error, 1)

	go func() {
		writeErr := writeForm(form, artifact, keep)
		_ = writer.CloseWithError(writeErr)
		done <- writeErr
	}()

	_, _, err = c.do(req)

	// Unblock the form writer if the server answered before reading it all.
	_ = reader.Close()
	writeErr := <-done

	if err != nil {
		var statusErr *StatusError
		if !errors.As(err, &statusErr) && writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) {
			return false, writeErr
		}

		return false, err
	}

	logger.Info(ctx, "Completed install")

	return keep, nil
}

// writeForm encodes the archive and the keep flag as multipart fields.
func writeForm(form *multipart.Writer, artifact io.Reader, keep bool) error {
	part, err := form.CreateFormFile(FieldFile, uploadFilename)
	if err != nil {
		return fmt.Errorf("create file field: %w", err)
	}

	if _, err = io.Copy(part, artifact); err != nil {
		return fmt.Errorf("stream archive: %w", err)
	}

	if err = form.WriteField(FieldKeepPreviousConfig, keepValue(keep)); err != nil {
		return fmt.Errorf("write keep flag: %w", err)
	}

	return form.Close()
}

// keepValue encodes the flag the way the API expects it.
func keepValue(keep bool) string {
	if keep {
		return "1"
	}

	return "0"
}
