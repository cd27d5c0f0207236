package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/codepinky/ruptura/ruptura-backend/internal/config"
	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

const presetContentType = "application/json"

// S3PresetRepository implements domain.PresetRepository using AWS S3.
// Each user's presets live in one JSON array object.
type S3PresetRepository struct {
	client *s3.Client
	bucket string
}

// Ensure S3PresetRepository implements domain.PresetRepository
var _ domain.PresetRepository = (*S3PresetRepository)(nil)

// NewS3PresetRepository creates a new S3 preset repository
func NewS3PresetRepository(ctx context.Context, s3cfg cfg.S3Config) (*S3PresetRepository, error) {
	// Build AWS config options
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	// Add credentials if provided
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Optional endpoint override for MinIO/LocalStack
	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	repo := &S3PresetRepository{
		client: client,
		bucket: s3cfg.Bucket,
	}

	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

// ensureBucket creates the (private) bucket if it doesn't exist
func (r *S3PresetRepository) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		var noSuchBucket *types.NoSuchBucket
		if !errors.As(err, &noSuchBucket) {
			return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
		}
	}

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Load reads the user's presets; a missing object means no presets
func (r *S3PresetRepository) Load(ctx context.Context, userID string) ([]*domain.Preset, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(PresetKey(userID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return []*domain.Preset{}, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}
	return decodePresets(data)
}

// Save overwrites the user's presets
func (r *S3PresetRepository) Save(ctx context.Context, userID string, presets []*domain.Preset) error {
	data, err := encodePresets(presets)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(PresetKey(userID)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(presetContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}
	return nil
}

// PresetKey is the fixed object key holding a user's presets
func PresetKey(userID string) string {
	return "presets/" + url.PathEscape(userID) + ".json"
}

func encodePresets(presets []*domain.Preset) ([]byte, error) {
	if presets == nil {
		presets = []*domain.Preset{}
	}
	data, err := json.Marshal(presets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode presets: %w", err)
	}
	return data, nil
}

func decodePresets(data []byte) ([]*domain.Preset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*domain.Preset{}, nil
	}
	var presets []*domain.Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to decode presets: %w", err)
	}
	if presets == nil {
		presets = []*domain.Preset{}
	}
	return presets, nil
}
