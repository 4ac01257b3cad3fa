package services

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"koi-keeper-backend/internal/config"
	"koi-keeper-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoService_PresignsUpload(t *testing.T) {
	cfg := config.AWSConfig{
		Region:    "eu-central-1",
		S3Bucket:  "koi-photos",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	}
	client, err := repository.NewS3Client(context.Background(), cfg)
	require.NoError(t, err)

	svc := NewPhotoService(client, cfg)
	require.True(t, svc.Enabled())

	resp, err := svc.GetPreSignedURL(context.Background(), "koi-1", "")
	require.NoError(t, err)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.True(t, strings.HasPrefix(resp.PhotoURI, "http://localhost:9000/koi-photos/koi/koi-1/"))
	assert.True(t, strings.HasSuffix(resp.PhotoURI, ".jpg"))

	u, err := url.Parse(resp.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/koi-photos/koi/koi-1/"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestPhotoService_AWSObjectURL(t *testing.T) {
	svc := &PhotoService{aws: config.AWSConfig{Region: "us-west-2", S3Bucket: "b"}}
	assert.Equal(t, "https://b.s3.us-west-2.amazonaws.com/koi/1/x.jpg", svc.objectURL("koi/1/x.jpg"))
}

func TestPhotoService_Disabled(t *testing.T) {
	svc := NewPhotoService(nil, config.AWSConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.GetPreSignedURL(context.Background(), "koi-1", "image/jpeg")
	assert.ErrorIs(t, err, ErrPhotosDisabled)
}
