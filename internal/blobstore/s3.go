package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store хранит payload в бакете S3 по ключу <prefix>/<id>/data.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store создаёт клиент S3 из окружения (AWS_REGION, креды по стандартной цепочке).
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewS3StoreFromClient(s3.NewFromConfig(cfg), bucket, prefix)
}

// NewS3StoreFromClient создаёт бэкенд поверх готового клиента.
func NewS3StoreFromClient(client *s3.Client, bucket, prefix string) (*S3Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is empty")
	}
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

// Store стримит r в объект; manager.Uploader сам режет большие тела на multipart.
func (s *S3Store) Store(ctx context.Context, id int64, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        r,
		ContentType: aws.String("application/octet-stream"),
	})
	return err
}

// Retrieve копирует тело объекта в w.
func (s *S3Store) Retrieve(ctx context.Context, id int64, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	_, err = io.Copy(w, out.Body)
	return err
}

func (s *S3Store) key(id int64) string {
	return path.Join(s.prefix, strconv.FormatInt(id, 10), dataFileName)
}
