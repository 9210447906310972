package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultUploadFolder groups profile images in the Cloudinary media library.
const DefaultUploadFolder = "leafora"

// CloudinaryService uploads user images; the returned secure URLs land in the
// record's userImage label map.
type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// UploadImage uploads one multipart file and returns its secure URL.
func (s *CloudinaryService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if folder == "" {
		folder = DefaultUploadFolder
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	result, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload to Cloudinary: %w", err)
	}
	return result.SecureURL, nil
}
