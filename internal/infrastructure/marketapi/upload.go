package marketapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage sends one file as multipart field "file" and returns the URL
// the server stored it under.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("upload: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload: read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload: close form: %w", err)
	}

	var resp uploadResponse
	err = c.do(ctx, request{
		op:          "upload image",
		method:      http.MethodPost,
		path:        []string{"upload"},
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}
