package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSource fetches the table as a JSON object stored in a Cloud Storage
// bucket, for deployments where the upstream system drops its export into
// a bucket instead of serving it over HTTP.
type GCSSource struct {
	uri     string
	bucket  string
	object  string
	options []option.ClientOption
}

// NewGCSSource creates a source for a gs://bucket/object URI. When
// credentialsFile is non-empty it is passed to the storage client; otherwise
// ambient credentials apply.
func NewGCSSource(uri, credentialsFile string) (*GCSSource, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return &GCSSource{uri: uri, bucket: bucket, object: object, options: opts}, nil
}

// Name implements the Source interface.
func (s *GCSSource) Name() string {
	return s.uri
}

// Fetch implements the Source interface.
func (s *GCSSource) Fetch(ctx context.Context) (*RawTable, error) {
	client, err := storage.NewClient(ctx, s.options...)
	if err != nil {
		return nil, &FetchError{Source: s.uri, Err: fmt.Errorf("create storage client: %w", err)}
	}
	defer client.Close()

	r, err := client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, &FetchError{Source: s.uri, Err: fmt.Errorf("open object reader: %w", err)}
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FetchError{Source: s.uri, Err: fmt.Errorf("read object: %w", err)}
	}

	var table RawTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, &FetchError{Source: s.uri, Err: fmt.Errorf("decode object: %w", err)}
	}

	return &table, nil
}

// parseGCSURI splits "gs://bucket/path/to/object" into bucket and object.
func parseGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("parseGCSURI: malformed URI %q", uri)
	}
	return parts[0], parts[1], nil
}

// Ensure GCSSource implements the Source interface.
var _ Source = (*GCSSource)(nil)
