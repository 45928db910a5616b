// Package objectstore stores uploaded files and returns their public URL.
package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

// Store saves objects under a key. Put overwrites an existing object.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (url string, err error)
}

// New returns the store selected by conf.Storage.Driver.
func New(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Storage.Driver {
	case "s3":
		return NewS3Store(ctx, conf.Storage)
	case "local", "":
		return NewLocalStore(conf.Storage.LocalDir, conf.Storage.BaseURL), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

type S3Store struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

var _ Store = (*S3Store)(nil)

// NewS3Store uses static credentials when given, the default AWS chain otherwise.
// A custom endpoint (minio, localstack...) switches to path-style addressing.
func NewS3Store(ctx context.Context, sc core.StorageConfig) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(sc.Region)}
	if sc.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: sc.Bucket, region: sc.Region, endpoint: strings.TrimSuffix(sc.Endpoint, "/")}, nil
}

func (st *S3Store) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (string, error) {
	_, err := st.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(st.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	return st.URL(key), nil
}

func (st *S3Store) URL(key string) string {
	if st.endpoint != "" {
		return st.endpoint + "/" + st.bucket + "/" + key
	}
	return "https://" + st.bucket + ".s3." + st.region + ".amazonaws.com/" + key
}

// LocalStore writes objects below a directory served at baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (st *LocalStore) Put(_ context.Context, key, _ string, body io.ReadSeeker, _ int64) (string, error) {
	path := filepath.Join(st.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(st.dir)+string(os.PathSeparator)) {
		return "", errors.Errorf("invalid key %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", key)
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, body); err != nil {
		return "", errors.Wrapf(err, "writing %s", key)
	}
	return st.baseURL + "/" + key, nil
}
