package browser

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/urlinfo"
)

// PDFLinks returns the absolute URLs of every anchor in html that points at
// a PDF, in document order and without duplicates. Relative hrefs are
// resolved against baseURL.
func PDFLinks(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "browser: parse html")
	}

	root, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: parse base url %q", baseURL)
	}
	// A <base href> in the document wins over the page URL.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := root.Parse(strings.TrimSpace(href)); err == nil {
			root = b
		}
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		u, err := root.Parse(href)
		if err != nil {
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		u.Fragment = ""
		abs := u.String()
		// Query strings are common on CDN-hosted reports.
		if !urlinfo.IsPDF(abs, true) && !urlinfo.IsPDF(u.Path, true) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown converts rendered HTML to markdown.
func Markdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", eris.New("browser: empty html")
	}
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return "", eris.Wrap(err, "browser: convert markdown")
	}
	return md, nil
}
