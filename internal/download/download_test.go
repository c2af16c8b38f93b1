package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/resilience"
)

func newReportServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
}

// stubFetcher fails a fixed number of times before succeeding.
type stubFetcher struct {
	failures int
	err      error
	calls    int
}

func (s *stubFetcher) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func (s *stubFetcher) DownloadToFile(_ context.Context, _ string, path string) (int64, error) {
	s.calls++
	if s.calls <= s.failures {
		return 0, s.err
	}
	return 4, os.WriteFile(path, []byte("%PDF"), 0o644)
}

func TestFetch_WritesFile(t *testing.T) {
	srv, hits := newReportServer(t, http.StatusOK, "%PDF-1.7 acme")
	folder := filepath.Join(t.TempDir(), "Acme")

	m := NewManager(newFetcher())
	url := srv.URL + "/esg/report-2023.pdf"
	outcome, err := m.Fetch(context.Background(), url, folder)

	require.NoError(t, err)
	assert.Equal(t, OutcomeDownloaded, outcome)
	assert.Equal(t, int32(1), hits.Load())

	data, err := os.ReadFile(filepath.Join(folder, "report-2023.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 acme", string(data))
	assert.Equal(t, []string{url}, m.Downloaded())
}

func TestFetch_SecondCallMakesNoRequest(t *testing.T) {
	srv, hits := newReportServer(t, http.StatusOK, "first body")
	folder := t.TempDir()
	url := srv.URL + "/report.pdf"

	m := NewManager(newFetcher())
	outcome, err := m.Fetch(context.Background(), url, folder)
	require.NoError(t, err)
	require.Equal(t, OutcomeDownloaded, outcome)

	before, err := os.ReadFile(filepath.Join(folder, "report.pdf"))
	require.NoError(t, err)

	outcome, err = m.Fetch(context.Background(), url, folder)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExists, outcome)
	assert.Equal(t, int32(1), hits.Load())

	after, err := os.ReadFile(filepath.Join(folder, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, m.Downloaded(), 1)
}

func TestFetch_CreatesNestedFolder(t *testing.T) {
	srv, _ := newReportServer(t, http.StatusOK, "x")
	folder := filepath.Join(t.TempDir(), "a", "b", "Beta-Gamma")

	_, err := NewManager(newFetcher()).Fetch(context.Background(), srv.URL+"/r.pdf", folder)
	require.NoError(t, err)
	assert.DirExists(t, folder)
	assert.FileExists(t, filepath.Join(folder, "r.pdf"))
}

func TestFetch_DiscardFailuresIsSilent(t *testing.T) {
	srv, _ := newReportServer(t, http.StatusNotFound, "missing")
	folder := t.TempDir()

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	m := NewManager(newFetcher())
	outcome, err := m.Fetch(context.Background(), srv.URL+"/gone.pdf", folder)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.NoFileExists(t, filepath.Join(folder, "gone.pdf"))
	assert.Empty(t, m.Downloaded())
	assert.Equal(t, 0, logs.Len())
}

func TestFetch_UnreachableHostIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/r.pdf"
	srv.Close()

	outcome, err := NewManager(newFetcher()).Fetch(context.Background(), url, t.TempDir())
	assert.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestFetch_LogFailures(t *testing.T) {
	srv, _ := newReportServer(t, http.StatusServiceUnavailable, "busy")

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	m := NewManager(newFetcher(), WithFailurePolicy(LogFailures))
	outcome, err := m.Fetch(context.Background(), srv.URL+"/r.pdf", t.TempDir())

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	entries := logs.FilterMessage("download: skipped report").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, resilience.ClassTransient, entries[0].ContextMap()["class"])
}

func TestFetch_CollectFailures(t *testing.T) {
	srv, _ := newReportServer(t, http.StatusForbidden, "")

	collect := &CollectFailures{}
	m := NewManager(newFetcher(), WithFailurePolicy(collect))
	folder := t.TempDir()

	_, err := m.Fetch(context.Background(), srv.URL+"/a.pdf", folder)
	require.NoError(t, err)
	_, err = m.Fetch(context.Background(), srv.URL+"/b.pdf", folder)
	require.NoError(t, err)

	failures := collect.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, srv.URL+"/a.pdf", failures[0].URL)
	assert.Equal(t, filepath.Join(folder, "a.pdf"), failures[0].Path)
	assert.Equal(t, resilience.ClassPermanent, failures[0].Class)
}

func TestFetch_CollectFailuresForwards(t *testing.T) {
	boom := errors.New("boom")
	collect := &CollectFailures{Next: ReturnFailures}
	m := NewManager(&stubFetcher{failures: 1, err: boom}, WithFailurePolicy(collect))

	_, err := m.Fetch(context.Background(), "https://acme.com/r.pdf", t.TempDir())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, collect.Failures(), 1)
}

func TestFetch_ReturnFailures(t *testing.T) {
	srv, _ := newReportServer(t, http.StatusNotFound, "")

	m := NewManager(newFetcher(), WithFailurePolicy(ReturnFailures))
	outcome, err := m.Fetch(context.Background(), srv.URL+"/r.pdf", t.TempDir())

	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	var se *resilience.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestFetch_NoFilename(t *testing.T) {
	m := NewManager(&stubFetcher{}, WithFailurePolicy(ReturnFailures))
	_, err := m.Fetch(context.Background(), "https://acme.com/reports/", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no filename")
}

func TestFetch_FolderIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "Acme")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	m := NewManager(&stubFetcher{}, WithFailurePolicy(ReturnFailures))
	_, err := m.Fetch(context.Background(), "https://acme.com/r.pdf", blocker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download: create folder")
}

func TestFetch_NoRetryByDefault(t *testing.T) {
	stub := &stubFetcher{failures: 1, err: resilience.NewTransientError(errors.New("503"), 503)}
	m := NewManager(stub)

	outcome, err := m.Fetch(context.Background(), "https://acme.com/r.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 1, stub.calls)
}

func TestFetch_RetriesTransient(t *testing.T) {
	stub := &stubFetcher{failures: 2, err: resilience.NewTransientError(errors.New("503"), 503)}
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	m := NewManager(stub, WithRetry(cfg))

	folder := t.TempDir()
	outcome, err := m.Fetch(context.Background(), "https://acme.com/r.pdf", folder)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDownloaded, outcome)
	assert.Equal(t, 3, stub.calls)
	assert.FileExists(t, filepath.Join(folder, "r.pdf"))
}

func TestTargetAndExists(t *testing.T) {
	folder := t.TempDir()
	url := "https://acme.com/docs/esg.pdf"
	assert.Equal(t, filepath.Join(folder, "esg.pdf"), Target(url, folder))
	assert.False(t, Exists(url, folder))

	require.NoError(t, os.WriteFile(Target(url, folder), []byte("x"), 0o644))
	assert.True(t, Exists(url, folder))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "downloaded", OutcomeDownloaded.String())
	assert.Equal(t, "exists", OutcomeExists.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
