// Package fetcher downloads report files over HTTP and reads tabular
// reference data from CSV and XLSX sources.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote documents.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	// No file is left behind when the download fails.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
