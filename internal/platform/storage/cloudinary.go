package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageHost stores binary image content and returns a durable URL.
type ImageHost interface {
	UploadAvatar(ctx context.Context, data []byte, publicID string) (string, error)
}

type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudinaryURL string) (*CloudinaryStorage, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is not configured")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}

	return &CloudinaryStorage{cld: cld}, nil
}

// UploadAvatar uploads under avatars/<publicID>, overwriting any previous
// avatar for the same user.
func (s *CloudinaryStorage) UploadAvatar(ctx context.Context, data []byte, publicID string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    "avatars",
		PublicID:  publicID,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("avatar upload failed: %w", err)
	}

	return res.SecureURL, nil
}
