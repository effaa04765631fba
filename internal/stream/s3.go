package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type s3Library struct {
	log    *zap.Logger
	client *minio.Client
	bucket string
	prefix string
}

// newS3Library serves an s3://endpoint/bucket/prefix root. Plain HTTP
// endpoints opt in with ?insecure=true.
func newS3Library(log *zap.Logger, u *url.URL, cfg Config) (*s3Library, error) {
	trimmed := strings.Trim(u.Path, "/")
	bucket, prefix, _ := strings.Cut(trimmed, "/")
	if bucket == "" {
		return nil, errors.New("s3 library root needs a bucket")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("s3 library root needs credentials")
	}
	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: u.Query().Get("insecure") != "true",
	})
	if err != nil {
		return nil, fmt.Errorf("s3 endpoint %s: %w", u.Host, err)
	}
	log.Info("using s3 library",
		zap.String("endpoint", u.Host),
		zap.String("bucket", bucket),
		zap.String("prefix", prefix))
	return &s3Library{log: log, client: client, bucket: bucket, prefix: prefix}, nil
}

func (l *s3Library) Open(ctx context.Context, p string, offset int64) (io.ReadCloser, int64, error) {
	key := path.Join(l.prefix, p)

	stat, err := l.client.StatObject(ctx, l.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, 0, err
	}

	opts := minio.GetObjectOptions{}
	if offset > 0 {
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, 0, err
		}
	}
	obj, err := l.client.GetObject(ctx, l.bucket, key, opts)
	if err != nil {
		return nil, 0, err
	}
	return obj, stat.Size, nil
}
