package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/valyala/fasthttp"
)

// ScrapeWebsite fetches a prospect's site and returns its visible text,
// plus the text of up to three likely contact/team subpages and any email
// addresses spotted in the raw HTML. It never returns a Go error: every
// failure is reported as an "ERROR SCRAPING: <reason>" string so the
// draft pipeline can degrade instead of aborting the request.
func ScrapeWebsite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "https://" + rawURL
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return "ERROR SCRAPING: " + err.Error()
	}

	body, err := fetchPage(rawURL)
	if err != nil {
		return "ERROR SCRAPING: " + err.Error()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "ERROR SCRAPING: " + err.Error()
	}

	emails := map[string]struct{}{}
	collectEmails(emails, body)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- MAIN PAGE (%s) ---\n", rawURL))
	sb.WriteString(extractText(doc))

	for _, subURL := range discoverSubpages(doc, base) {
		subBody, err := fetchPage(subURL)
		if err != nil {
			continue
		}
		subDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(subBody)))
		if err != nil {
			continue
		}
		collectEmails(emails, subBody)
		sb.WriteString(fmt.Sprintf("\n\n--- SUBPAGE (%s) ---\n", subURL))
		sb.WriteString(extractText(subDoc))
	}

	if len(emails) > 0 {
		sb.WriteString("\n\n--- EMAILS FOUND ON SITE ---\n")
		sb.WriteString(strings.Join(sortedKeys(emails), "\n"))
	}

	return sb.String()
}

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var scrapeClient = &fasthttp.Client{
	ReadTimeout:         30 * time.Second,
	WriteTimeout:        10 * time.Second,
	MaxConnsPerHost:     8,
	MaxIdleConnDuration: time.Minute,
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Pages worth a second fetch when hunting for people and contact details.
var subpageKeywords = []string{"about", "team", "contact", "people", "leadership", "board"}

func fetchPage(pageURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(pageURL)
	req.Header.SetUserAgent(scrapeUserAgent)

	if err := scrapeClient.DoRedirects(req, resp, 5); err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode(), pageURL)
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, svg, iframe").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.Join(strings.Fields(line), " "); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

func discoverSubpages(doc *goquery.Document, base *url.URL) []string {
	seen := map[string]struct{}{}
	var subpages []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if len(subpages) >= 3 {
			return
		}
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref)
		if full.Host != base.Host {
			return
		}

		lowered := strings.ToLower(href)
		matched := false
		for _, keyword := range subpageKeywords {
			if strings.Contains(lowered, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		link := full.String()
		if link == base.String() {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		subpages = append(subpages, link)
	})

	return subpages
}

func collectEmails(into map[string]struct{}, body []byte) {
	for _, match := range emailPattern.FindAllString(string(body), -1) {
		into[strings.ToLower(match)] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
