package main

import (
	"time"

	"github.com/sells-group/report-cli/internal/config"
	"github.com/sells-group/report-cli/internal/download"
	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/resilience"
	"github.com/sells-group/report-cli/pkg/google"
)

func newSearchClient(sc config.SearchConfig) google.Client {
	opts := []google.Option{google.WithBaseURL(sc.BaseURL)}
	if sc.TimeoutSecs > 0 {
		opts = append(opts, google.WithTimeout(time.Duration(sc.TimeoutSecs)*time.Second))
	}
	if sc.RatePerSec > 0 {
		opts = append(opts, google.WithRateLimit(sc.RatePerSec))
	}
	return google.NewClient(sc.APIKey, sc.CSEID, opts...)
}

func newFetcher(dc config.DownloadConfig, timeout time.Duration) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:          dc.UserAgent,
		Timeout:            timeout,
		InsecureSkipVerify: dc.InsecureSkipVerify,
	})
}

// newPipelineDownloads builds the discovery download manager: bounded
// requests and logged failures.
func newPipelineDownloads(dc config.DownloadConfig) *download.Manager {
	f := newFetcher(dc, time.Duration(dc.TimeoutSecs)*time.Second)
	return download.NewManager(f,
		download.WithFailurePolicy(download.LogFailures),
		download.WithRetry(resilience.NewRetryConfig(dc.MaxAttempts)),
	)
}

// newStandaloneDownloads builds the ad-hoc download manager: no request
// timeout and silent failures unless a policy is given.
func newStandaloneDownloads(dc config.DownloadConfig, policy download.FailurePolicy) *download.Manager {
	if policy == nil {
		policy = download.DiscardFailures
	}
	return download.NewManager(newFetcher(dc, 0),
		download.WithFailurePolicy(policy),
		download.WithRetry(resilience.NewRetryConfig(dc.MaxAttempts)),
	)
}
