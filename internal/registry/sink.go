package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/uikit/internal/errors"
)

// Artifact file names.
const (
	RegistryFileName    = "registry.json"
	SearchIndexFileName = "search-index.json"
)

// Sink persists the merged index and the search index.
type Sink interface {
	Write(ctx context.Context, idx *MergedIndex, search *SearchIndex) error
}

// Artifacts returns the serialized artifacts keyed by file name.
func Artifacts(idx *MergedIndex, search *SearchIndex) (map[string][]byte, error) {
	reg, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registry data: %w", err)
	}
	srch, err := json.Marshal(search)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search index: %w", err)
	}
	return map[string][]byte{
		RegistryFileName:    append(reg, '\n'),
		SearchIndexFileName: append(srch, '\n'),
	}, nil
}

// FileSink writes the artifacts into a local directory.
type FileSink struct {
	Dir string
}

// Write stores both artifacts, each through a temp file and a rename.
func (f *FileSink) Write(_ context.Context, idx *MergedIndex, search *SearchIndex) error {
	if err := os.MkdirAll(f.Dir, 0750); err != nil {
		return errors.New("E131").
			WithDetail("Could not create " + f.Dir).
			Wrap(err)
	}

	files, err := Artifacts(idx, search)
	if err != nil {
		return errors.New("E131").Wrap(err)
	}

	for _, name := range []string{RegistryFileName, SearchIndexFileName} {
		if err := writeAtomic(filepath.Join(f.Dir, name), files[name]); err != nil {
			return errors.New("E131").
				WithDetail("Could not write " + filepath.Join(f.Dir, name)).
				Wrap(err)
		}
	}
	return nil
}

func writeAtomic(filePath string, data []byte) error {
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

// LoadMergedIndex reads the merged index written by a FileSink in dir.
func LoadMergedIndex(dir string) (*MergedIndex, error) {
	p := filepath.Join(dir, RegistryFileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E115").
				WithDetail("No merged registry at " + p).
				WithSuggestion("Run 'uikit registry build' first")
		}
		return nil, errors.New("E115").Wrap(err)
	}
	var idx MergedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.New("E115").
			WithDetail(p + " is corrupt: " + err.Error()).
			WithSuggestion("Run 'uikit registry build' to rebuild it")
	}
	if idx.Items == nil {
		idx.Items = []*Item{}
	}
	return &idx, nil
}

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the artifacts to a bucket under a key prefix.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Sink creates a sink for s3://bucket/prefix.
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ParseS3URL splits "s3://bucket/prefix".
func ParseS3URL(u string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(u, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URL: %q", u)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", u)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Key returns the object key of an artifact.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Write uploads both artifacts.
func (s *S3Sink) Write(ctx context.Context, idx *MergedIndex, search *SearchIndex) error {
	files, err := Artifacts(idx, search)
	if err != nil {
		return errors.New("E131").Wrap(err)
	}
	for _, name := range []string{RegistryFileName, SearchIndexFileName} {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.Key(name)),
			Body:        bytes.NewReader(files[name]),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return errors.New("E131").
				WithDetail(fmt.Sprintf("s3 upload of s3://%s/%s failed", s.bucket, s.Key(name))).
				Wrap(err)
		}
	}
	return nil
}

// S3ClientOptions configures NewS3Client.
type S3ClientOptions struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewS3Client builds an S3 client whose credentials come from the standard
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN variables.
func NewS3Client(o S3ClientOptions) *s3.Client {
	region := o.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: o.UsePathStyle,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			id := os.Getenv("AWS_ACCESS_KEY_ID")
			secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
			}
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		}),
	}
	if o.Endpoint != "" {
		opts.BaseEndpoint = aws.String(o.Endpoint)
	}
	return s3.New(opts)
}
