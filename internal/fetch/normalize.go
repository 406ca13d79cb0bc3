package fetch

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Page is the normalized content of one HTML document.
type Page struct {
	Title    string // <title> text, suffix not stripped
	Text     string // whitespace-collapsed visible text
	FileLink string // first absolute link to a .pdf file, if any
}

// Normalize parses HTML, removes non-content subtrees, and returns the visible
// text collapsed to single spaces. Noise is removed before any text is read.
// baseURL resolves relative PDF links and may be empty.
func Normalize(html, baseURL string, contentSelectors []string, noiseSelectors ...string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	// Remove chrome first; extracting text before this would pull in menu text
	doc.Find(strings.Join(BaseNoiseSelectors(), ", ")).Remove()
	if len(noiseSelectors) > 0 {
		if noiseSelector := strings.Join(noiseSelectors, ", "); noiseSelector != "" {
			doc.Find(noiseSelector).Remove()
		}
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}
	if mainContent.Length() == 0 {
		mainContent = doc.Selection
	}

	page.Text = CollapseWhitespace(blockText(mainContent))
	page.FileLink = firstPDFLink(mainContent, baseURL)

	return page, nil
}

// CollapseWhitespace splits text into lines, breaks each line on runs of
// Unicode space (tabs and no-break spaces included), and joins the words with
// single spaces.
func CollapseWhitespace(text string) string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		chunks = append(chunks, strings.FieldsFunc(line, unicode.IsSpace)...)
	}
	return strings.Join(chunks, " ")
}

// blockElements end a run of text; adjacent ones must not merge words.
var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "caption": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "hr": true, "li": true, "main": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

// blockText returns the text under sel with a newline around every block
// element and at every <br>. Selection.Text joins text nodes with nothing
// between them.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			switch name := goquery.NodeName(child); {
			case name == "#text":
				b.WriteString(child.Text())
			case name == "br":
				b.WriteByte('\n')
			case strings.HasPrefix(name, "#"):
				// comments and doctypes carry no visible text
			case blockElements[name]:
				b.WriteByte('\n')
				walk(child)
				b.WriteByte('\n')
			default:
				walk(child)
			}
		})
	}
	walk(sel)
	return b.String()
}

// TextFromFragment decodes entities and drops markup from an HTML fragment,
// such as a WordPress rendered title.
func TextFromFragment(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func firstPDFLink(sel *goquery.Selection, baseURL string) string {
	base, _ := url.Parse(baseURL)

	var link string
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		ref, err := url.Parse(href)
		if err != nil || !strings.HasSuffix(strings.ToLower(ref.Path), ".pdf") {
			return true
		}
		if base != nil && base.Scheme != "" {
			ref = base.ResolveReference(ref)
		}
		if !ref.IsAbs() {
			return true
		}
		link = ref.String()
		return false
	})
	return link
}
