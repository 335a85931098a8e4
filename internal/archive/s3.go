// Package archive provides the S3-compatible object store adapter (cold
// tier). It targets Cloudflare R2 but works against any S3 endpoint.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/model"
)

// ServiceName identifies this store in health maps.
const ServiceName = "archive"

// ErrNotConnected is returned by archive operations before Connect.
var ErrNotConnected = errors.New("archive store not connected")

// Store is the object archive adapter.
type Store struct {
	cfg    config.ArchiveConfig
	logger *slog.Logger

	mu     sync.RWMutex
	client *s3.Client
}

// New creates a Store. Credentials are resolved once at construction.
func New(cfg config.ArchiveConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Connect builds the S3 client and verifies access by listing one object.
// Idempotent.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		o.UsePathStyle = true
	})

	listCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.ListObjectsV2(listCtx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("list bucket %s: %w", s.cfg.Bucket, err)
	}

	s.client = client
	s.logger.Info("archive connected", "endpoint", s.cfg.Endpoint, "bucket", s.cfg.Bucket)
	return nil
}

// Disconnect releases the client. The underlying HTTP client needs no
// explicit teardown. Safe to call when never connected.
func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client = nil
		s.logger.Info("archive client released")
	}
	return nil
}

// HealthCheck lists one object and reports measured latency. Never returns
// an error; failures land in the health record.
func (s *Store) HealthCheck(ctx context.Context) model.ConnectionHealth {
	health := model.ConnectionHealth{
		Service:   ServiceName,
		LastCheck: time.Now(),
	}

	client, err := s.acquire()
	if err != nil {
		health.Error = err.Error()
		return health
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		health.Error = err.Error()
		return health
	}

	health.Healthy = true
	health.ResponseTime = time.Since(start)
	return health
}

// Put uploads an object.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := s.acquire()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("uploaded object", "key", key, "bytes", len(data))
	return nil
}

// Get downloads an object. Returns (nil, nil) when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := s.acquire()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// List returns up to max keys under a prefix.
func (s *Store) List(ctx context.Context, prefix string, max int) ([]string, error) {
	client, err := s.acquire()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(max)),
	})
	if err != nil {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	client, err := s.acquire()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *Store) acquire() (*s3.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}
