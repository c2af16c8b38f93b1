// Package ocr turns downloaded report PDFs into markdown or plain text.
package ocr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/report-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey,
			WithModel(cfg.MistralModel),
			WithBaseURL(cfg.MistralURL),
		), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// ConvertResult counts what ConvertDir did.
type ConvertResult struct {
	Converted int `json:"converted" yaml:"converted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// ConvertDir extracts every PDF in inDir into {outDir}/{stem}.md. Existing
// outputs are left alone unless reprocess is set. Per-file failures are
// logged and counted; only a cancelled ctx or an unreadable inDir fails the
// call.
func ConvertDir(ctx context.Context, ext Extractor, inDir, outDir string, reprocess bool, concurrency int) (ConvertResult, error) {
	var res ConvertResult

	pdfs, err := listPDFs(inDir)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, eris.Wrapf(err, "ocr: create output dir %s", outDir)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var converted, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, pdf := range pdfs {
		stem := strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
		out := filepath.Join(outDir, stem+".md")

		if !reprocess {
			if _, err := os.Stat(out); err == nil {
				zap.L().Debug("ocr: skipping, output exists", zap.String("file", stem))
				skipped.Add(1)
				continue
			}
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := ext.ExtractText(gctx, pdf)
			if err == nil {
				err = os.WriteFile(out, []byte(text), 0o644)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zap.L().Warn("ocr: convert failed", zap.String("file", pdf), zap.Error(err))
				failed.Add(1)
				return nil
			}
			zap.L().Info("ocr: converted", zap.String("file", stem), zap.Int("chars", len(text)))
			converted.Add(1)
			return nil
		})
	}

	err = g.Wait()
	res.Converted = int(converted.Load())
	res.Skipped = int(skipped.Load())
	res.Failed = int(failed.Load())
	if err != nil {
		return res, eris.Wrap(err, "ocr: convert dir")
	}
	return res, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: read dir %s", dir)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		pdfs = append(pdfs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
