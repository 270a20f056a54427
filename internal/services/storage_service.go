// internal/services/storage_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/metrics"
	"github.com/javajoker/media-ledger/internal/models"
)

// StorageService archives committed ledger events as JSON objects so
// indexers can rebuild state from object storage.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	prefix   string
}

// NewStorageService returns a service without S3 when no credentials or
// bucket are configured. Archive is then a no-op.
func NewStorageService(cfg config.AWSConfig) (*StorageService, error) {
	if cfg.AccessKeyID == "" || cfg.EventBucket == "" {
		return &StorageService{}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.EventBucket), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, bucket string) *StorageService {
	return &StorageService{
		s3Client: client,
		bucket:   bucket,
		prefix:   "events",
	}
}

func (s *StorageService) Enabled() bool {
	return s.s3Client != nil
}

func (s *StorageService) EventKey(seq uint64) string {
	return fmt.Sprintf("%s/%020d.json", s.prefix, seq)
}

// Archive stores one event. Object keys are zero-padded so a prefix
// listing returns events in order.
func (s *StorageService) Archive(evt models.LedgerEvent) error {
	if s.s3Client == nil {
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event %d: %w", evt.Seq, err)
	}

	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.EventKey(evt.Seq)),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]*string{
			"event-type": aws.String(string(evt.Type)),
		},
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return fmt.Errorf("failed to upload event %d to S3: %w", evt.Seq, err)
	}
	return nil
}

// ArchiveSink adapts Archive to an event bus handler. Failures are logged
// and counted; the ledger state is already committed.
func (s *StorageService) ArchiveSink(evt models.LedgerEvent) {
	if err := s.Archive(evt); err != nil {
		metrics.RecordArchiveFailure()
		logrus.WithError(err).WithField("seq", evt.Seq).Error("Failed to archive ledger event")
	}
}

func (s *StorageService) GeneratePresignedURL(seq uint64, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.EventKey(seq)),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}
