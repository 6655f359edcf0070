package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const jpegContentType = "image/jpeg"

type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	JPEGQuality   int
}

// MinioUploader сжимает снимок в JPEG и кладет его в бакет S3/MinIO.
type MinioUploader struct {
	client  *minio.Client
	opts    Options
	logger  *zap.Logger
	newName func() string
}

func NewMinioUploader(ctx context.Context, opts Options, logger *zap.Logger) (*MinioUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	u := &MinioUploader{
		client:  client,
		opts:    opts,
		logger:  logger,
		newName: uuid.NewString,
	}
	if err := u.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.opts.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.opts.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload возвращает публичный URL загруженного снимка.
func (u *MinioUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := Compress(r, u.opts.JPEGQuality)
	if err != nil {
		return "", err
	}

	key := ObjectKey(time.Now().UTC(), u.newName())
	_, err = u.client.PutObject(ctx, u.opts.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  jpegContentType,
		UserMetadata: map[string]string{"Original-Name": path.Base(filename)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	u.logger.Info("image uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return PublicURL(u.opts.PublicBaseURL, u.opts.Bucket, key), nil
}

// Compress перекодирует PNG или JPEG в JPEG с заданным качеством.
func Compress(r io.Reader, quality int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ObjectKey раскладывает снимки по дням: visits/2024/01/15/<name>.jpg
func ObjectKey(at time.Time, name string) string {
	return fmt.Sprintf("visits/%s/%s.jpg", at.Format("2006/01/02"), name)
}

func PublicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
