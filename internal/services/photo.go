package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"koi-keeper-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadExpiry = 5 * time.Minute

// ErrPhotosDisabled is returned when no bucket is configured for uploads
var ErrPhotosDisabled = errors.New("photo uploads are not configured")

// PhotoService hands out pre-signed upload URLs for koi photos
type PhotoService struct {
	presign *s3.PresignClient
	aws     config.AWSConfig
}

// NewPhotoService creates a new photo service. A nil client disables uploads.
func NewPhotoService(client *s3.Client, cfg config.AWSConfig) *PhotoService {
	s := &PhotoService{aws: cfg}
	if client != nil && cfg.S3Bucket != "" {
		s.presign = s3.NewPresignClient(client)
	}
	return s
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	ContentType string `json:"contentType"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	PhotoURI  string `json:"photoUri"`
	ExpiresIn int    `json:"expiresIn"`
}

// Enabled reports whether uploads can be signed
func (s *PhotoService) Enabled() bool {
	return s.presign != nil
}

// GetPreSignedURL generates a pre-signed URL for uploading a photo of a koi
func (s *PhotoService) GetPreSignedURL(ctx context.Context, koiID, contentType string) (*UploadResponse, error) {
	if s.presign == nil {
		return nil, ErrPhotosDisabled
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	// koi/{koi_id}/{uuid}.jpg
	key := fmt.Sprintf("koi/%s/%s.jpg", koiID, uuid.New().String())

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.aws.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PhotoURI:  s.objectURL(key),
		ExpiresIn: int(uploadExpiry.Seconds()),
	}, nil
}

func (s *PhotoService) objectURL(key string) string {
	if s.aws.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.aws.Endpoint, "/"), s.aws.S3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}
