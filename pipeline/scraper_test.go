package pipeline

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractTextStripsNonContent(t *testing.T) {
	doc := docFromHTML(t, `<html><head><style>.x{color:red}</style></head>
<body><script>var x = 1;</script><h1>Acme  Robotics</h1>
<p>We build robots.</p><noscript>enable js</noscript></body></html>`)

	text := extractText(doc)

	assert.Contains(t, text, "Acme Robotics")
	assert.Contains(t, text, "We build robots.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
}

func TestDiscoverSubpagesFiltersAndBounds(t *testing.T) {
	base, _ := url.Parse("https://acme.com")
	doc := docFromHTML(t, `<html><body>
<a href="/about">About</a>
<a href="/team">Team</a>
<a href="/contact-us">Contact</a>
<a href="/leadership">Leadership</a>
<a href="/pricing">Pricing</a>
<a href="https://other.com/about">External About</a>
<a href="/about">About again</a>
</body></html>`)

	subpages := discoverSubpages(doc, base)

	require.Len(t, subpages, 3)
	assert.Equal(t, "https://acme.com/about", subpages[0])
	assert.Equal(t, "https://acme.com/team", subpages[1])
	assert.Equal(t, "https://acme.com/contact-us", subpages[2])
	for _, link := range subpages {
		assert.NotContains(t, link, "other.com")
		assert.NotContains(t, link, "pricing")
	}
}

func TestCollectEmailsDedupesCaseInsensitively(t *testing.T) {
	found := map[string]struct{}{}
	collectEmails(found, []byte(`Contact CEO@acme.com or ceo@acme.com, sales@acme.com.`))

	assert.Len(t, found, 2)
	assert.Contains(t, found, "ceo@acme.com")
	assert.Contains(t, found, "sales@acme.com")
}

func TestScrapeWebsiteUnreachableHostReturnsSentinel(t *testing.T) {
	result := ScrapeWebsite("https://invalid.invalid")

	assert.True(t, strings.HasPrefix(result, "ERROR SCRAPING:"), "got %q", result)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"leading prose", "Here you go:\n```json\n{\"a\":1}\n```", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}
