package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	defaultMistralURL   = "https://api.mistral.ai/v1"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOption configures a MistralOCR.
type MistralOption func(*MistralOCR)

// WithModel overrides the OCR model. Empty keeps the default.
func WithModel(model string) MistralOption {
	return func(m *MistralOCR) {
		if model != "" {
			m.model = model
		}
	}
}

// WithBaseURL overrides the API base URL. Empty keeps the default.
func WithBaseURL(u string) MistralOption {
	return func(m *MistralOCR) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) MistralOption {
	return func(m *MistralOCR) { m.client = c }
}

// MistralOCR converts PDFs to markdown with the Mistral OCR API. The file is
// uploaded, read back through a short-lived signed URL and processed with
// embedded page images.
type MistralOCR struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewMistralOCR creates a MistralOCR extractor.
func NewMistralOCR(apiKey string, opts ...MistralOption) *MistralOCR {
	m := &MistralOCR{
		apiKey:  apiKey,
		model:   defaultMistralModel,
		baseURL: defaultMistralURL,
		client:  &http.Client{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type uploadResponse struct {
	ID string `json:"id"`
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int        `json:"index"`
	Markdown string     `json:"markdown"`
	Images   []ocrImage `json:"images"`
}

type ocrImage struct {
	ID          string `json:"id"`
	ImageBase64 string `json:"image_base64"`
}

// ExtractText uploads the PDF, runs OCR on it and returns the combined
// markdown of all pages.
func (m *MistralOCR) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	fileID, err := m.upload(ctx, stem, data)
	if err != nil {
		return "", err
	}

	signed, err := m.signedURL(ctx, fileID)
	if err != nil {
		return "", err
	}

	resp, err := m.process(ctx, signed)
	if err != nil {
		return "", err
	}
	return combineMarkdown(resp), nil
}

func (m *MistralOCR) upload(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "ocr"); err != nil {
		return "", eris.Wrap(err, "ocr: build upload")
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", eris.Wrap(err, "ocr: build upload")
	}
	if _, err := part.Write(data); err != nil {
		return "", eris.Wrap(err, "ocr: build upload")
	}
	if err := w.Close(); err != nil {
		return "", eris.Wrap(err, "ocr: build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/files", &body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: create upload request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out uploadResponse
	if err := m.do(req, "upload", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", eris.New("ocr: mistral upload returned no file id")
	}
	return out.ID, nil
}

func (m *MistralOCR) signedURL(ctx context.Context, fileID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/files/"+fileID+"/url?expiry=1", nil)
	if err != nil {
		return "", eris.Wrap(err, "ocr: create signed url request")
	}
	var out signedURLResponse
	if err := m.do(req, "signed url", &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", eris.New("ocr: mistral signed url response has no url")
	}
	return out.URL, nil
}

func (m *MistralOCR) process(ctx context.Context, documentURL string) (*ocrResponse, error) {
	payload, err := json.Marshal(ocrRequest{
		Model:              m.model,
		Document:           ocrDocument{Type: "document_url", DocumentURL: documentURL},
		IncludeImageBase64: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")

	var out ocrResponse
	if err := m.do(req, "ocr", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MistralOCR) do(req *http.Request, step string, out any) error {
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "ocr: mistral %s call", step)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "ocr: read mistral %s response", step)
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("ocr: mistral %s returned %d: %s", step, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "ocr: unmarshal mistral %s response", step)
	}
	return nil
}

// combineMarkdown joins page markdown with blank lines, inlining each
// page's images in place of their placeholder references.
func combineMarkdown(resp *ocrResponse) string {
	pages := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		md := p.Markdown
		for _, img := range p.Images {
			md = strings.ReplaceAll(md, "!["+img.ID+"]("+img.ID+")", "!["+img.ID+"]("+img.ImageBase64+")")
		}
		pages = append(pages, md)
	}
	return strings.Join(pages, "\n\n")
}
