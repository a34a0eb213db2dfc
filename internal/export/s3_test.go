package export

import (
	"context"
	"errors"
	"io"
	"testing"

	"unostat-app/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestEndpointFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ExportConfig
		want string
	}{
		{"aws default", config.ExportConfig{}, ""},
		{"r2 account", config.ExportConfig{AccountID: "abc123"}, "https://abc123.r2.cloudflarestorage.com"},
		{"explicit endpoint wins", config.ExportConfig{AccountID: "abc123", Endpoint: "http://localhost:9000/"}, "http://localhost:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := endpointFor(tt.cfg); got != tt.want {
				t.Fatalf("endpointFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"", "standings/s1/1.json", ""},
		{"https://cdn.example.com", "standings/s1/1.json", "https://cdn.example.com/standings/s1/1.json"},
		{"https://cdn.example.com/unostat/", "/standings/s1/1.json", "https://cdn.example.com/unostat/standings/s1/1.json"},
	}
	for _, tt := range tests {
		if got := publicURL(tt.base, tt.key); got != tt.want {
			t.Fatalf("publicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestPutUploadsJSON(t *testing.T) {
	putter := &fakePutter{}
	e := &S3Exporter{client: putter, bucket: "snapshots", publicURL: "https://cdn.example.com"}

	url, err := e.Put(context.Background(), "standings/s1/1.json", []byte(`{"rows":[]}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/standings/s1/1.json" {
		t.Fatalf("unexpected url %q", url)
	}
	if aws.ToString(putter.input.Bucket) != "snapshots" || aws.ToString(putter.input.ContentType) != "application/json" {
		t.Fatalf("unexpected input: %+v", putter.input)
	}
	if string(putter.body) != `{"rows":[]}` {
		t.Fatalf("unexpected body %q", putter.body)
	}

	putter.err = errors.New("boom")
	if _, err := e.Put(context.Background(), "k", nil); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewS3ExporterValidatesConfig(t *testing.T) {
	if _, err := NewS3Exporter(context.Background(), config.ExportConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without bucket, got %v", err)
	}
	cfg := config.ExportConfig{Bucket: "b", AccessKeyID: "id"}
	if _, err := NewS3Exporter(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for half credentials, got %v", err)
	}
}
