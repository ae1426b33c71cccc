package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceph/cephadm-build/internal/archive"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		data, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		f.body = data
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cephadm")
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/python3\nPK\x05\x06"), 0o755))
	return path
}

func TestConfigKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "cephadm"},
		{prefix: "nightly", want: "nightly/cephadm"},
		{prefix: "nightly/", want: "nightly/cephadm"},
		{prefix: "builds/19.2.0/", want: "builds/19.2.0/cephadm"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{Prefix: tt.prefix}.Key("/tmp/out/cephadm"))
		})
	}
}

func TestPublish(t *testing.T) {
	file := writeArchive(t)
	client := &fakeS3{}
	p := New(client, Config{Bucket: "ceph-builds", Prefix: "nightly/"}, log.New(io.Discard))

	rc, err := p.Publish(context.Background(), file)
	require.NoError(t, err)

	digest, err := archive.FileDigest(file)
	require.NoError(t, err)

	assert.Equal(t, "s3://ceph-builds/nightly/cephadm", rc.URI())
	assert.Equal(t, digest, rc.Digest)
	assert.Equal(t, int64(len(client.body)), rc.Size)

	require.NotNil(t, client.input)
	assert.Equal(t, "ceph-builds", aws.ToString(client.input.Bucket))
	assert.Equal(t, "nightly/cephadm", aws.ToString(client.input.Key))
	assert.Equal(t, digest, client.input.Metadata[DigestMetadataKey])
	assert.Equal(t, "#!/usr/bin/python3\nPK\x05\x06", string(client.body))
}

func TestPublishWithoutBucket(t *testing.T) {
	client := &fakeS3{}
	_, err := New(client, Config{}, log.New(io.Discard)).Publish(context.Background(), writeArchive(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Nil(t, client.input)
}

func TestPublishUploadError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	_, err := New(client, Config{Bucket: "b"}, log.New(io.Discard)).Publish(context.Background(), writeArchive(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading s3://b/cephadm")
}

func TestNewClient(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	client, err := NewClient(context.Background(), Config{
		Bucket:          "b",
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "us-east-1", opts.Region)
}
