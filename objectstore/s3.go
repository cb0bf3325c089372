// Package objectstore wraps the S3 bucket that holds post images and
// verification photos.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/town-square/api-go/apperr"
)

type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	// PublicURL is the base under which uploaded objects are served.
	PublicURL string
}

type Client struct {
	cfg Config
	s3  *s3.Client
}

func NewClient(cfg Config) *Client {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Client{cfg: cfg, s3: s3.New(opts)}
}

// PushFile uploads the body under the given key and returns the public URL.
func (c *Client) PushFile(ctx context.Context, body io.Reader, key, contentType string) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperr.Vendor(err)
	}

	return c.urlFor(key), nil
}

func (c *Client) DeleteFile(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Vendor(err)
	}
	return nil
}

// PostImageKey builds a collision-free object key for a post image upload.
func PostImageKey(userID uint, filename string) string {
	return objectKey("posts", userID, filename)
}

// VerificationPhotoKey builds the key for an identity-document photo.
func VerificationPhotoKey(userID uint, filename string) string {
	return objectKey("verification", userID, filename)
}

// ProfilePictureKey builds the key for a profile picture.
func ProfilePictureKey(userID uint, filename string) string {
	return objectKey("profiles", userID, filename)
}

func objectKey(prefix string, userID uint, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s/%d/%d_%s%s", prefix, userID, time.Now().Unix(), uuid.NewString(), ext)
}

func (c *Client) urlFor(key string) string {
	return strings.TrimSuffix(c.cfg.PublicURL, "/") + "/" + key
}
