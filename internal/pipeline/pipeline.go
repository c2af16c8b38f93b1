// Package pipeline runs report discovery: search per company, download the
// PDF hits and record every PDF link in the result table.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/config"
	"github.com/sells-group/report-cli/internal/download"
	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/store"
	"github.com/sells-group/report-cli/internal/urlinfo"
	"github.com/sells-group/report-cli/pkg/google"
)

// DefaultQueryTemplate is the text placed between company and year.
const DefaultQueryTemplate = "sustainability report pdf"

// Config holds the per-run discovery settings.
type Config struct {
	Year               int
	QueryTemplate      string
	NumResults         int
	DataDir            string
	CaseInsensitivePDF bool
}

// ConfigFrom builds a run config from the application config. A zero year
// in cfg means the current year.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Year:               cfg.Search.Year,
		QueryTemplate:      cfg.Search.QueryTemplate,
		NumResults:         cfg.Search.NumResults,
		DataDir:            cfg.Download.DataDir,
		CaseInsensitivePDF: cfg.Search.CaseInsensitivePDF,
	}
}

// Query builds the search query for an already sanitized company name.
func (c Config) Query(company string) string {
	return fmt.Sprintf("%s %s %d", company, c.QueryTemplate, c.Year)
}

// SanitizeCompany makes a company name safe to use as a folder name.
// Path separators become "-". Names made only of dots, and the empty name,
// would resolve to the data dir or its parent, so their dots become "_".
func SanitizeCompany(name string) string {
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	if strings.Trim(name, ".") == "" {
		return strings.Repeat("_", max(len(name), 1))
	}
	return name
}

// RunResult summarizes a discovery run.
type RunResult struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	Companies  int                  `json:"companies" yaml:"companies"`
	Searched   int                  `json:"searched" yaml:"searched"`
	Skipped    int                  `json:"skipped" yaml:"skipped"`
	PDFLinks   int                  `json:"pdf_links" yaml:"pdf_links"`
	Downloaded int                  `json:"downloaded" yaml:"downloaded"`
	Existing   int                  `json:"existing" yaml:"existing"`
	Failed     int                  `json:"failed" yaml:"failed"`
	Appended   int                  `json:"appended" yaml:"appended"`
	TableSize  int                  `json:"table_size" yaml:"table_size"`
	Records    []model.ReportRecord `json:"records" yaml:"records"`
	Duration   time.Duration        `json:"duration" yaml:"duration"`
}

// Pipeline orchestrates search, download and persistence for a batch of
// companies. Companies are processed one at a time.
type Pipeline struct {
	cfg       Config
	search    google.Client
	downloads *download.Manager
	store     store.Store
}

// New creates a Pipeline. Empty settings fall back to the defaults of the
// discovery command.
func New(cfg Config, search google.Client, downloads *download.Manager, st store.Store) *Pipeline {
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	if cfg.QueryTemplate == "" {
		cfg.QueryTemplate = DefaultQueryTemplate
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 5
	}
	return &Pipeline{
		cfg:       cfg,
		search:    search,
		downloads: downloads,
		store:     st,
	}
}

// Config returns the effective run configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run discovers reports for each company and saves the result table once at
// the end. Search and download problems are logged and skipped; only loading
// or saving the table, or cancellation of ctx, fails the run. A cancelled
// run leaves the persisted table untouched.
func (p *Pipeline) Run(ctx context.Context, companies []string) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting discovery",
		zap.Int("companies", len(companies)),
		zap.Int("year", p.cfg.Year),
	)

	table, err := p.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load results")
	}
	loaded := table.Len()

	for _, raw := range companies {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "pipeline: cancelled")
		}
		res.Companies++
		p.runCompany(ctx, log, SanitizeCompany(raw), res)
	}
	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "pipeline: cancelled")
	}

	if err := p.store.AppendAndSave(ctx, table, res.Records); err != nil {
		return res, eris.Wrap(err, "pipeline: save results")
	}
	res.TableSize = table.Len()
	res.Appended = res.TableSize - loaded
	res.Duration = time.Since(start)

	log.Info("pipeline: discovery complete",
		zap.Int("searched", res.Searched),
		zap.Int("skipped", res.Skipped),
		zap.Int("pdf_links", res.PDFLinks),
		zap.Int("downloaded", res.Downloaded),
		zap.Int("existing", res.Existing),
		zap.Int("failed", res.Failed),
		zap.Int("appended", res.Appended),
		zap.Int("table_size", res.TableSize),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) runCompany(ctx context.Context, log *zap.Logger, company string, res *RunResult) {
	query := p.cfg.Query(company)
	log = log.With(zap.String("company", company))

	resp, err := p.search.Search(ctx, query, p.cfg.NumResults)
	if err != nil {
		log.Warn("pipeline: search failed", zap.String("query", query), zap.Error(err))
		res.Skipped++
		return
	}
	res.Searched++

	if resp == nil || len(resp.Items) == 0 {
		log.Info("pipeline: no result found", zap.String("query", query))
		res.Skipped++
		return
	}

	folder := filepath.Join(p.cfg.DataDir, company)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		log.Warn("pipeline: create company folder", zap.String("folder", folder), zap.Error(err))
		res.Skipped++
		return
	}

	for _, item := range resp.Items {
		if !urlinfo.IsPDF(item.Link, p.cfg.CaseInsensitivePDF) {
			continue
		}
		res.PDFLinks++

		outcome, err := p.downloads.Fetch(ctx, item.Link, folder)
		if err != nil {
			log.Warn("pipeline: download failed", zap.String("url", item.Link), zap.Error(err))
		}
		switch outcome {
		case download.OutcomeDownloaded:
			res.Downloaded++
		case download.OutcomeExists:
			res.Existing++
			log.Debug("pipeline: report already on disk", zap.String("url", item.Link))
		default:
			res.Failed++
		}

		res.Records = append(res.Records, model.ReportRecord{Company: company, URL: item.Link})
	}
}
