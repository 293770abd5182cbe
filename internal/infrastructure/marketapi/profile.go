package marketapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"marketdesk/internal/domain"
)

func (c *Client) GetProfile(ctx context.Context) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, fields map[string]interface{}) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPut, "/profile", nil, fields, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ImageUpload is the result of a profile image upload.
type ImageUpload struct {
	URL string `json:"url"`
}

// UploadProfileImage posts the image as multipart field "image".
func (c *Client) UploadProfileImage(ctx context.Context, fileName string, r io.Reader) (*ImageUpload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(fileName))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("profile image: read: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/profile/image", nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out ImageUpload
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
