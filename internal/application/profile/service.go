// Package profile edits the signed-in user's own account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/domain"
	"marketdesk/internal/infrastructure/marketapi"
	"marketdesk/internal/pkg/validation"
)

// MaxImageSize is the largest accepted profile image.
const MaxImageSize = 5 << 20

var (
	ErrUnknownField  = errors.New("Field cannot be edited")
	ErrInvalidName   = errors.New("Name can only contain letters, spaces, hyphens and apostrophes")
	ErrInvalidPhone  = errors.New("Invalid phone number")
	ErrNothingToSave = errors.New("No fields to update")
	ErrImageRequired = errors.New("Image file is required")
	ErrImageType     = errors.New("Image must be a JPG, PNG or WEBP file")
	ErrImageTooLarge = errors.New("Image must be 5MB or smaller")
	errEmptyProfile  = errors.New("profile: empty response")
)

var editable = map[string]bool{"name": true, "phone": true, "bio": true, "location": true}

var imageTypes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// API is the part of the marketplace API the profile page needs.
type API interface {
	GetProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, fields map[string]interface{}) (*domain.User, error)
	UploadProfileImage(ctx context.Context, fileName string, r io.Reader) (*marketapi.ImageUpload, error)
}

type Service struct {
	API API
}

func (s *Service) Get(ctx context.Context, ui feedback.UI) (domain.User, error) {
	u, err := s.API.GetProfile(ctx)
	if err != nil {
		feedback.Failed(ui, "Failed to load profile")
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}
	if u == nil {
		return domain.User{}, errEmptyProfile
	}
	return *u, nil
}

// ValidateFields checks an edit before anything is sent.
func ValidateFields(fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrNothingToSave
	}
	for k, v := range fields {
		if !editable[k] {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
		s, _ := v.(string)
		switch k {
		case "name":
			if strings.TrimSpace(s) == "" || !validation.IsValidName(s) {
				return ErrInvalidName
			}
		case "phone":
			if !validation.IsValidPhone(strings.TrimSpace(s)) {
				return ErrInvalidPhone
			}
		}
	}
	return nil
}

// Update saves profile fields after confirmation.
func (s *Service) Update(ctx context.Context, ui feedback.UI, fields map[string]interface{}) (domain.User, error) {
	if err := ValidateFields(fields); err != nil {
		feedback.Failed(ui, err.Error())
		return domain.User{}, err
	}
	err := ui.Confirm(ctx, feedback.Prompt{
		Title:        "Save profile",
		Message:      "Save the changes to your profile?",
		ConfirmLabel: "Save",
	})
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.API.UpdateProfile(ctx, fields)
	if err != nil {
		feedback.Failed(ui, "Failed to update profile")
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	if u == nil {
		return domain.User{}, errEmptyProfile
	}
	feedback.Succeeded(ui, "Profile updated")
	return *u, nil
}

// ValidateImage checks name and size of an upload.
func ValidateImage(fileName string, size int64) error {
	if fileName == "" || size <= 0 {
		return ErrImageRequired
	}
	if !imageTypes[strings.ToLower(filepath.Ext(fileName))] {
		return ErrImageType
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// UploadImage replaces the profile picture and returns its URL.
func (s *Service) UploadImage(ctx context.Context, ui feedback.UI, fileName string, size int64, r io.Reader) (string, error) {
	if err := ValidateImage(fileName, size); err != nil {
		feedback.Failed(ui, err.Error())
		return "", err
	}
	err := ui.Confirm(ctx, feedback.Prompt{
		Title:        "Change profile picture",
		Message:      fmt.Sprintf("Upload %s as your new profile picture?", filepath.Base(fileName)),
		ConfirmLabel: "Upload",
	})
	if err != nil {
		return "", err
	}
	up, err := s.API.UploadProfileImage(ctx, fileName, io.LimitReader(r, MaxImageSize))
	if err != nil {
		feedback.Failed(ui, "Failed to upload image")
		return "", fmt.Errorf("upload profile image: %w", err)
	}
	feedback.Succeeded(ui, "Profile picture updated")
	return up.URL, nil
}
