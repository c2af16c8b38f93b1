// Package browser renders JavaScript-heavy report pages in headless Chrome
// and extracts what discovery needs from the rendered HTML.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Loader renders a page and returns its outer HTML.
type Loader interface {
	Render(ctx context.Context, url string) (string, error)
}

// Option configures a ChromeLoader.
type Option func(*ChromeLoader)

// WithTimeout bounds a single Render call, browser start-up included.
func WithTimeout(d time.Duration) Option {
	return func(l *ChromeLoader) { l.timeout = d }
}

// WithNoSandbox disables the Chrome sandbox. Needed when running as root in
// containers.
func WithNoSandbox(noSandbox bool) Option {
	return func(l *ChromeLoader) { l.noSandbox = noSandbox }
}

// WithExecPath points chromedp at a specific Chrome binary.
func WithExecPath(path string) Option {
	return func(l *ChromeLoader) { l.execPath = path }
}

// ChromeLoader starts a fresh headless Chrome for every Render call and tears
// it down before returning.
type ChromeLoader struct {
	timeout   time.Duration
	noSandbox bool
	execPath  string
}

// NewChromeLoader creates a ChromeLoader. The default timeout is 60s.
func NewChromeLoader(opts ...Option) *ChromeLoader {
	l := &ChromeLoader{timeout: 60 * time.Second}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *ChromeLoader) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}
	return opts
}

// Render navigates to url, waits for the body to be ready and returns the
// document's outer HTML.
func (l *ChromeLoader) Render(ctx context.Context, url string) (string, error) {
	log := zap.L().With(zap.String("url", url))
	start := time.Now()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if l.timeout > 0 {
		var cancelTimeout context.CancelFunc
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, l.timeout)
		defer cancelTimeout()
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", eris.Wrapf(err, "browser: render %s", url)
	}

	log.Debug("browser: rendered page",
		zap.Int("bytes", len(html)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return html, nil
}
