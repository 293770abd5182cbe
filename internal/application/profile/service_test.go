package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/domain"
	"marketdesk/internal/infrastructure/marketapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	updated  map[string]interface{}
	uploaded string
	body     string
	err      error
}

func (f *fakeAPI) GetProfile(context.Context) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "u1", Name: "Ada"}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, fields map[string]interface{}) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = fields
	name, _ := fields["name"].(string)
	return &domain.User{ID: "u1", Name: name}, nil
}

func (f *fakeAPI) UploadProfileImage(_ context.Context, fileName string, r io.Reader) (*marketapi.ImageUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(r)
	f.uploaded, f.body = fileName, string(b)
	return &marketapi.ImageUpload{URL: "https://cdn.example.com/" + fileName}, nil
}

func ui(confirm bool) (feedback.UI, *feedback.Collector) {
	col := &feedback.Collector{}
	return feedback.UI{Confirmer: feedback.StaticConfirmer(confirm), Notifier: col}, col
}

func TestUpdate_ConfirmsThenSaves(t *testing.T) {
	api := &fakeAPI{}
	s := &Service{API: api}
	u, col := ui(true)

	user, err := s.Update(context.Background(), u, map[string]interface{}{"name": "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "Ada Lovelace", api.updated["name"])
	assert.Equal(t, []feedback.Toast{{Kind: feedback.Success, Message: "Profile updated"}}, col.Toasts())
}

func TestUpdate_DeclinedSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	u, _ := ui(false)
	_, err := (&Service{API: api}).Update(context.Background(), u, map[string]interface{}{"name": "Ada"})
	assert.ErrorIs(t, err, feedback.ErrDeclined)
	assert.Nil(t, api.updated)
}

func TestValidateFields(t *testing.T) {
	assert.ErrorIs(t, ValidateFields(nil), ErrNothingToSave)
	assert.ErrorIs(t, ValidateFields(map[string]interface{}{"role": "admin"}), ErrUnknownField)
	assert.ErrorIs(t, ValidateFields(map[string]interface{}{"name": "R2D2"}), ErrInvalidName)
	assert.ErrorIs(t, ValidateFields(map[string]interface{}{"phone": "call me"}), ErrInvalidPhone)
	assert.NoError(t, ValidateFields(map[string]interface{}{"name": "Ada", "bio": "math"}))
}

func TestUploadImage(t *testing.T) {
	api := &fakeAPI{}
	u, _ := ui(true)
	url, err := (&Service{API: api}).UploadImage(context.Background(), u, "me.png", 3, strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/me.png", url)
	assert.Equal(t, "png", api.body)
}

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, ValidateImage("", 10), ErrImageRequired)
	assert.ErrorIs(t, ValidateImage("cv.pdf", 10), ErrImageType)
	assert.ErrorIs(t, ValidateImage("me.JPG", MaxImageSize+1), ErrImageTooLarge)
	assert.NoError(t, ValidateImage("me.webp", 1024))
}

func TestUpload_FailureToasts(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	u, col := ui(true)
	_, err := (&Service{API: api}).UploadImage(context.Background(), u, "me.png", 3, strings.NewReader("png"))
	require.Error(t, err)
	assert.Equal(t, "Failed to upload image", col.Toasts()[0].Message)
}
