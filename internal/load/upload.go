package load

import (
	"context"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultObjectName is the object key of the uploaded merge file.
const DefaultObjectName = "artistas_merge.csv"

// UploadConfig locates the destination bucket. Endpoint may be a bare
// host:port or a URL; an https scheme forces TLS.
type UploadConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// ObjectUploader stores files in an S3-compatible bucket.
type ObjectUploader struct {
	client *minio.Client
	bucket string
	region string
	prefix string
}

// NewObjectUploader creates a client for cfg. It makes no requests.
func NewObjectUploader(cfg UploadConfig) (*ObjectUploader, error) {
	if cfg.Endpoint == "" {
		return nil, eris.New("load: upload endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, eris.New("load: upload bucket is required")
	}

	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = secure || u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "load: create object client")
	}
	return &ObjectUploader{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: cfg.Prefix,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (u *ObjectUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return eris.Wrapf(err, "load: check bucket %s", u.bucket)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
		return eris.Wrapf(err, "load: create bucket %s", u.bucket)
	}
	zap.L().Info("load: bucket created", zap.String("bucket", u.bucket))
	return nil
}

// Key returns the object key for name under the configured prefix.
func (u *ObjectUploader) Key(name string) string {
	if name == "" {
		name = DefaultObjectName
	}
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload stores the file at localPath as name and returns the object key.
func (u *ObjectUploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	key := u.Key(name)
	info, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", eris.Wrapf(err, "load: upload %s", key)
	}
	zap.L().Info("load: file uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int64("bytes", info.Size),
	)
	return key, nil
}
