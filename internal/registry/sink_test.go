package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/uikit/internal/errors"
)

func TestFileSink_WriteAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	idx := searchFixture()

	require.NoError(t, (&FileSink{Dir: dir}).Write(context.Background(), idx, BuildSearchIndex(idx.Items)))

	for _, name := range []string{RegistryFileName, SearchIndexFileName} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
		_, err = os.Stat(filepath.Join(dir, name+".tmp"))
		assert.True(t, os.IsNotExist(err))
	}

	loaded, err := LoadMergedIndex(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Items, len(idx.Items))
	assert.Equal(t, "acme", loaded.Items[0].RegistryName())
	assert.Equal(t, idx.Sources, loaded.Sources)
}

func TestLoadMergedIndex_Missing(t *testing.T) {
	_, err := LoadMergedIndex(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E115"))
}

type fakeS3 struct {
	objects map[string]string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Write(t *testing.T) {
	client := &fakeS3{objects: map[string]string{}}
	idx := searchFixture()

	sink := NewS3Sink(client, "bucket", "/registry/v1/")
	require.NoError(t, sink.Write(context.Background(), idx, BuildSearchIndex(idx.Items)))

	assert.Contains(t, client.objects, "bucket/registry/v1/registry.json")
	assert.Contains(t, client.objects, "bucket/registry/v1/search-index.json")
	assert.Contains(t, client.objects["bucket/registry/v1/registry.json"], `"registryName": "acme"`)
}

func TestS3Sink_Error(t *testing.T) {
	client := &fakeS3{err: assert.AnError}
	err := NewS3Sink(client, "b", "").Write(context.Background(), &MergedIndex{}, BuildSearchIndex(nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E131"))
}

func TestParseS3URL(t *testing.T) {
	bucket, prefix, err := ParseS3URL("s3://my-bucket/a/b/")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "a/b", prefix)

	bucket, prefix, err = ParseS3URL("s3://only")
	require.NoError(t, err)
	assert.Equal(t, "only", bucket)
	assert.Empty(t, prefix)

	_, _, err = ParseS3URL("https://x")
	assert.Error(t, err)
	_, _, err = ParseS3URL("s3:///x")
	assert.Error(t, err)
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3ClientOptions{Region: "eu-west-1", Endpoint: "http://localhost:9000", UsePathStyle: true})
	assert.Equal(t, "eu-west-1", c.Options().Region)
	assert.True(t, c.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(c.Options().BaseEndpoint))
}
