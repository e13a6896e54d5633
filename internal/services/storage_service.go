package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/config"
)

// imageExtensions lists the image types accepted for listings.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// StorageService turns uploaded images into public URLs, on S3 when
// credentials are configured and on local disk otherwise.
type StorageService struct {
	s3Client  s3iface.S3API
	bucket    string
	region    string
	cdnURL    string
	uploadDir string
	publicURL string
	maxSize   int64
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{
		bucket:    cfg.AWS.S3Bucket,
		region:    cfg.AWS.Region,
		cdnURL:    strings.TrimRight(cfg.AWS.CloudFrontURL, "/"),
		uploadDir: cfg.Storage.UploadDir,
		publicURL: strings.TrimRight(cfg.Server.PublicURL, "/"),
		maxSize:   cfg.Storage.MaxFileSize,
	}

	if cfg.AWS.AccessKeyID == "" {
		return service, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	service.s3Client = s3.New(sess)
	return service, nil
}

// NewLocalStorageService stores files under dir and serves them from publicURL.
func NewLocalStorageService(dir, publicURL string, maxSize int64) *StorageService {
	return &StorageService{
		uploadDir: dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxSize:   maxSize,
	}
}

// WithS3 switches the service to the given client and bucket.
func (s *StorageService) WithS3(client s3iface.S3API, bucket, region string) *StorageService {
	s.s3Client = client
	s.bucket = bucket
	s.region = region
	return s
}

func (s *StorageService) UploadDir() string {
	return s.uploadDir
}

// UploadImage stores one image and returns its public URL.
func (s *StorageService) UploadImage(ctx context.Context, file io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperrors.Validation(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("file is empty")
	}

	mimeType := http.DetectContentType(data)
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("file type %s is not allowed", mimeType))
	}

	key := fmt.Sprintf("items/%s_%s.%s", time.Now().UTC().Format("20060102"), uuid.NewString(), ext)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, mimeType)
	}
	return s.uploadToLocal(data, key, mimeType)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return nil, apperrors.Transient(fmt.Errorf("failed to upload to S3: %w", err))
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResult{
		URL:      fmt.Sprintf("%s/uploads/%s", s.publicURL, key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) getS3URL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
