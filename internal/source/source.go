// Package source fetches the raw inventory movement table from a remote or
// local collaborator. Every implementation makes exactly one attempt per
// call: no retry, no backoff. A failed fetch is reported as a *FetchError
// and the caller decides whether to re-trigger.
package source

import (
	"context"
	"fmt"
	"strings"
)

// RawTable is the inbound wire shape: an ordered header row plus data rows
// whose cells correspond positionally to the headers. Cells arrive as string
// or number; rows may be malformed and are filtered downstream.
type RawTable struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Source produces one RawTable per Fetch.
type Source interface {
	// Fetch retrieves the table. Transport failures are returned as *FetchError.
	Fetch(ctx context.Context) (*RawTable, error)

	// Name identifies the source for load records and log lines.
	Name() string
}

// FetchError reports a transport failure while retrieving the table.
// It is distinct from a schema failure: the payload never arrived.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ForLocation picks a Source implementation from the location string:
// gs:// URIs map to GCS, .xlsx paths to the spreadsheet reader, everything
// else to the HTTP JSON source.
func ForLocation(location, credentialsFile string) (Source, error) {
	switch {
	case strings.HasPrefix(location, "gs://"):
		return NewGCSSource(location, credentialsFile)
	case strings.HasSuffix(strings.ToLower(location), ".xlsx"):
		return NewXLSXSource(location), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location), nil
	default:
		return nil, fmt.Errorf("ForLocation: unsupported source location %q", location)
	}
}
