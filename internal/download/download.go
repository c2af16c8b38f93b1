// Package download stores report files under per-company folders, skipping
// files that are already on disk.
package download

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/resilience"
	"github.com/sells-group/report-cli/internal/urlinfo"
)

// Outcome is the result of a single Fetch.
type Outcome int

const (
	// OutcomeFailed means nothing was written. The failure policy decided
	// whether the caller hears about it.
	OutcomeFailed Outcome = iota
	// OutcomeDownloaded means the file was fetched and written.
	OutcomeDownloaded
	// OutcomeExists means the target file was already present; no request was made.
	OutcomeExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeExists:
		return "exists"
	default:
		return "failed"
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithFailurePolicy sets how failed fetches are handled. The default is
// DiscardFailures.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithRetry retries transient failures according to cfg.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(m *Manager) {
		m.retry = cfg
	}
}

// Manager downloads report files. It is not safe for concurrent use.
type Manager struct {
	fetcher    fetcher.Fetcher
	policy     FailurePolicy
	retry      resilience.RetryConfig
	downloaded []string
}

// NewManager creates a Manager that downloads through f.
func NewManager(f fetcher.Fetcher, opts ...Option) *Manager {
	m := &Manager{
		fetcher: f,
		policy:  DiscardFailures,
		retry:   resilience.NewRetryConfig(1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Target returns the path a report at rawURL is stored under in folder.
func Target(rawURL, folder string) string {
	return filepath.Join(folder, urlinfo.Filename(rawURL))
}

// Exists reports whether the report at rawURL is already stored in folder.
func Exists(rawURL, folder string) bool {
	_, err := os.Stat(Target(rawURL, folder))
	return err == nil
}

// Fetch stores the document at rawURL as folder/<last URL segment>. The
// folder is created if needed. An existing file is left untouched and no
// request is made. Failures go through the manager's FailurePolicy; the
// returned error is whatever the policy returns.
func (m *Manager) Fetch(ctx context.Context, rawURL, folder string) (Outcome, error) {
	path := Target(rawURL, folder)

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return m.fail(ctx, rawURL, path, eris.Wrap(err, "download: create folder"))
	}

	if urlinfo.Filename(rawURL) == "" {
		return m.fail(ctx, rawURL, path, eris.Errorf("download: no filename in %q", rawURL))
	}

	if Exists(rawURL, folder) {
		return OutcomeExists, nil
	}

	retry := m.retry
	if retry.MaxAttempts > 1 && retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("download", rawURL)
	}

	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		_, err := m.fetcher.DownloadToFile(ctx, rawURL, path)
		return err
	})
	if err != nil {
		return m.fail(ctx, rawURL, path, err)
	}

	m.downloaded = append(m.downloaded, rawURL)
	return OutcomeDownloaded, nil
}

// Downloaded returns the URLs fetched successfully so far, in order.
func (m *Manager) Downloaded() []string {
	out := make([]string, len(m.downloaded))
	copy(out, m.downloaded)
	return out
}

func (m *Manager) fail(ctx context.Context, rawURL, path string, err error) (Outcome, error) {
	return OutcomeFailed, m.policy.OnFailure(ctx, Failure{
		URL:   rawURL,
		Path:  path,
		Class: resilience.ClassifyError(err),
		Err:   err,
	})
}
