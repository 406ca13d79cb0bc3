package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsChromeBeforeExtraction(t *testing.T) {
	html := `
	<html>
		<head>
			<title>FDA Advisory No.2025-0317 - Food and Drug Administration</title>
			<style>body { color: red; }</style>
		</head>
		<body>
			<header><div class="logo">FDA Logo</div></header>
			<nav><ul><li>Home</li><li>About <nav>Nested menu</nav></li></ul></nav>
			<script>var tracking = "do not keep";</script>
			<div class="content">
				<p>   The public		is advised&nbsp;&nbsp;&nbsp;against
				   purchasing	 unregistered products.   </p>
			</div>
			<aside>Related posts</aside>
			<noscript>Enable JavaScript</noscript>
			<footer>Copyright FDA</footer>
		</body>
	</html>`

	page, err := Normalize(html, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "The public is advised against purchasing unregistered products.", page.Text)
	assert.Equal(t, "FDA Advisory No.2025-0317 - Food and Drug Administration", page.Title)
	for _, noise := range []string{"FDA Logo", "Nested menu", "tracking", "Related posts", "Enable JavaScript", "Copyright", "color"} {
		assert.NotContains(t, page.Text, noise)
	}
	assert.NotContains(t, page.Text, "<")
	assert.NotContains(t, page.Text, "  ")
	assert.NotContains(t, page.Text, "\t")
	assert.NotContains(t, page.Text, "\u00a0")
}

func TestNormalize_ContentSelectorAndNoise(t *testing.T) {
	html := `
	<html><body>
		<div class="widget-area">Recent Issuances</div>
		<article>
			<h1>FDA Circular No.2025-004</h1>
			<p>Adoption of Codex Standard.</p>
			<div class="share-buttons">Share</div>
		</article>
	</body></html>`

	page, err := Normalize(html, "", []string{"article"}, ".share-buttons")
	require.NoError(t, err)
	assert.Contains(t, page.Text, "FDA Circular No.2025-004")
	assert.Contains(t, page.Text, "Adoption of Codex Standard.")
	assert.NotContains(t, page.Text, "Recent Issuances")
	assert.NotContains(t, page.Text, "Share")
}

func TestNormalize_SeparatesBlockElements(t *testing.T) {
	html := `<html><body><div class="content">` +
		`<ul><li>First requirement</li><li>Second requirement</li></ul>` +
		`<table><tr><td>Cell</td><td>Value</td></tr></table>` +
		`<p>Line one<br>Line two</p><p>Adoption of <em>Codex</em> Standard.</p>` +
		`</div></body></html>`

	page, err := Normalize(html, "", []string{".content"})
	require.NoError(t, err)
	assert.Equal(t, "First requirement Second requirement Cell Value Line one Line two Adoption of Codex Standard.", page.Text)
}

func TestNormalize_FirstPDFLink(t *testing.T) {
	html := `
	<html><body>
		<p>See attachment.</p>
		<a href="/about/">About</a>
		<a href="/wp-content/uploads/2025/03/FDA-Circular-No.2025-004.pdf">Download</a>
		<a href="https://www.fda.gov.ph/other.PDF">Second</a>
	</body></html>`

	page, err := Normalize(html, "https://www.fda.gov.ph/fda-circular-no-2025-004/", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://www.fda.gov.ph/wp-content/uploads/2025/03/FDA-Circular-No.2025-004.pdf", page.FileLink)
}

func TestNormalize_NoPDFLink(t *testing.T) {
	page, err := Normalize(`<html><body><a href="relative.pdf">x</a></body></html>`, "", nil)
	require.NoError(t, err)
	assert.Empty(t, page.FileLink, "relative links without a base are dropped")
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t \n ", ""},
		{"lines joined", "first line\nsecond line", "first line second line"},
		{"trims lines", "   padded   \n\n   next", "padded next"},
		{"double spaces split", "a  b    c", "a b c"},
		{"single spaces kept", "one two three", "one two three"},
		{"tabs trimmed at edges", "\talpha\t\n\tbeta", "alpha beta"},
		{"inner tabs collapsed", "alpha\t\tbeta \t gamma", "alpha beta gamma"},
		{"no-break spaces collapsed", "advised\u00a0\u00a0\u00a0against", "advised against"},
		{"carriage returns", "one\r\ntwo", "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollapseWhitespace(tt.input))
		})
	}
}

func TestTextFromFragment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"FDA Advisory No.2025-0317 &#8211; Public Health Warning", "FDA Advisory No.2025-0317 – Public Health Warning"},
		{"Circular &amp; Order || <em>Draft</em>", "Circular & Order || Draft"},
		{"  Plain title  ", "Plain title"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TextFromFragment(tt.input))
		})
	}
}
