// Package publish uploads finished archives to S3-compatible object
// storage.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"

	"github.com/ceph/cephadm-build/internal/archive"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/output"
)

// DigestMetadataKey is the object metadata key holding the archive digest.
const DigestMetadataKey = "blake3"

// Config locates the destination bucket.
type Config struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	PathStyle bool

	// AccessKeyID and SecretAccessKey are static credentials. When empty
	// the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks that a bucket is configured.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return oerrors.NewValidationError(
			"no publish bucket configured",
			"publish.bucket",
			"Set publish.bucket in the config file or CEPHADM_BUILD_PUBLISH_BUCKET.",
		)
	}
	return nil
}

// Key returns the object key for a local file.
func (c Config) Key(file string) string {
	return path.Join(c.Prefix, filepath.Base(file))
}

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient creates an S3 client for cfg.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading object store config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// Receipt describes an uploaded archive.
type Receipt struct {
	Bucket string
	Key    string
	Digest string
	Size   int64
}

// URI returns the s3:// location of the object.
func (r *Receipt) URI() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// Publisher uploads archives.
type Publisher struct {
	client PutObjectAPI
	cfg    Config
	log    *log.Logger
}

// New creates a Publisher. l may be nil to use the global logger.
func New(client PutObjectAPI, cfg Config, l *log.Logger) *Publisher {
	if l == nil {
		l = output.Logger()
	}
	return &Publisher{client: client, cfg: cfg, log: l}
}

// Publish uploads the archive at file, tagging it with its digest.
func (p *Publisher) Publish(ctx context.Context, file string) (*Receipt, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	digest, err := archive.FileDigest(file)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", file, err)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	rc := &Receipt{
		Bucket: p.cfg.Bucket,
		Key:    p.cfg.Key(file),
		Digest: digest,
		Size:   st.Size(),
	}

	p.log.Info("Publishing archive", "uri", rc.URI(), "size", rc.Size)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(rc.Bucket),
		Key:           aws.String(rc.Key),
		Body:          f,
		ContentLength: aws.Int64(rc.Size),
		ContentType:   aws.String("application/zip"),
		Metadata:      map[string]string{DigestMetadataKey: digest},
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", rc.URI(), err)
	}
	return rc, nil
}
