package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Contact is one person extracted from a prospect's site.
type Contact struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Email   string `json:"email"`
	Context string `json:"context"`
}

// CompanyInfo is the profile derived from scraped content. A failed
// parse yields a degraded record with Error set instead of failing the
// request, so callers must check Error explicitly.
type CompanyInfo struct {
	CompanyName   string    `json:"company_name"`
	WhatTheyDo    string    `json:"what_they_do"`
	Contacts      []Contact `json:"contacts"`
	KeyValueProps []string  `json:"key_value_props"`
	Error         string    `json:"error,omitempty"`
}

// MarketAnalysis summarizes industry position and growth signals.
type MarketAnalysis struct {
	Industry        string   `json:"industry"`
	BusinessType    string   `json:"business_type"`
	GrowthPotential string   `json:"growth_potential"`
	TargetAudience  string   `json:"target_audience"`
	PainPoints      []string `json:"pain_points"`
	Opportunities   []string `json:"opportunities"`
	Competitors     []string `json:"competitors"`
	Error           string   `json:"error,omitempty"`
}

// ServiceMatch recommends one catalog service for the prospect.
type ServiceMatch struct {
	ServiceName    string `json:"service_name"`
	Priority       string `json:"priority"`
	WhyRelevant    string `json:"why_relevant"`
	ExpectedImpact string `json:"expected_impact"`
}

// ServiceMatches is the prioritized recommendation set.
type ServiceMatches struct {
	RecommendedServices []ServiceMatch `json:"recommended_services"`
	EmailHook           string         `json:"email_hook"`
	Error               string         `json:"error,omitempty"`
}

// EmailContent is a generated draft.
type EmailContent struct {
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

// serviceCatalog is what we can actually sell; the model picks from it.
const serviceCatalog = `
1. Local SEO - local search dominance, Google Business Profile optimization, citations, review management
2. Organic SEO - keyword research, on-page and technical SEO, link building
3. Social Media Management - content creation, community management, performance analytics
4. Meta Ad Management - Facebook & Instagram campaigns, audience targeting, creative development
5. Google Ad Management - search & display campaigns, ad copy testing, conversion tracking
6. Digital Marketing Consulting - strategy, audits, growth planning
7. WordPress Web Development - custom responsive sites, performance optimization
8. App Development - iOS & Android, UX design, app store optimization
9. Automation Services - workflow and marketing automation, CRM integration
`

// LLMEngine runs the analysis/matching/drafting transforms against the
// Gemini generateContent REST endpoint.
type LLMEngine struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *fasthttp.Client
	Logger  *log.Logger
}

func NewLLMEngine(apiKey string, logger *log.Logger) *LLMEngine {
	return &LLMEngine{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Client: &fasthttp.Client{
			ReadTimeout:  90 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Logger: logger,
	}
}

// AnalyzeContent extracts a company profile from scraped site text.
// Best-effort: on any engine or parse failure it returns a degraded
// record rather than an error.
func (e *LLMEngine) AnalyzeContent(text string) CompanyInfo {
	prompt := fmt.Sprintf(`Analyze the following website content (including subpages) and extract, in JSON:
{
  "company_name": "Name of the company",
  "what_they_do": "Brief summary of their business (2-3 sentences)",
  "contacts": [{"name": "Full Name", "role": "Job Title", "email": "email if found, else null", "context": "specific context about this person, or null"}],
  "key_value_props": ["prop1", "prop2"]
}
Look for About Us, Team and Contact sections. Extract as many decision makers as possible. Return an empty contacts list if no specific people are found.

Website Content:
%s`, text)

	raw, err := e.generate(prompt)
	if err != nil {
		return CompanyInfo{CompanyName: "Unknown", WhatTheyDo: "Could not analyze content", Error: err.Error()}
	}

	var info CompanyInfo
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &info); err != nil {
		return CompanyInfo{CompanyName: "Unknown", WhatTheyDo: "Could not parse AI response", Error: fmt.Sprintf("JSON parsing failed: %v", err)}
	}
	return info
}

// AnalyzeMarket assesses industry, growth potential and pain points.
// Degrades the same way AnalyzeContent does.
func (e *LLMEngine) AnalyzeMarket(text, companyName string) MarketAnalysis {
	if len(text) > 10000 {
		text = text[:10000]
	}
	prompt := fmt.Sprintf(`Analyze this company's website content and provide a market analysis in JSON:
{
  "industry": "Primary industry/sector",
  "business_type": "E-commerce, SaaS, Service Provider, etc.",
  "growth_potential": "High/Medium/Low with explanation",
  "target_audience": "Who they sell to",
  "pain_points": ["challenge 1", "challenge 2"],
  "opportunities": ["opportunity 1", "opportunity 2"],
  "competitors": ["competitor 1"]
}
Be specific and focus on actionable intelligence.

Company: %s
Website Content: %s`, companyName, text)

	raw, err := e.generate(prompt)
	if err != nil {
		return MarketAnalysis{Industry: "Unknown", BusinessType: "Unknown", GrowthPotential: "Unable to analyze", Error: err.Error()}
	}

	var analysis MarketAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &analysis); err != nil {
		return MarketAnalysis{Industry: "Unknown", BusinessType: "Unknown", GrowthPotential: "Unable to analyze", Error: fmt.Sprintf("JSON parsing failed: %v", err)}
	}
	return analysis
}

// MatchServices picks the top catalog services for the prospect. Failures
// propagate: past the scrape stage the pipeline has no fallback.
func (e *LLMEngine) MatchServices(analysis MarketAnalysis, info CompanyInfo) (ServiceMatches, error) {
	painPoints, _ := json.Marshal(analysis.PainPoints)
	opportunities, _ := json.Marshal(analysis.Opportunities)
	prompt := fmt.Sprintf(`Based on this company's profile and market analysis, recommend the TOP 3-4 most relevant services.

Company: %s
Industry: %s
Business Type: %s
Growth Potential: %s
Pain Points: %s
Opportunities: %s

Available Services:
%s

Return JSON:
{
  "recommended_services": [{"service_name": "Service Name", "priority": "High/Medium", "why_relevant": "why this helps them", "expected_impact": "results they can expect"}],
  "email_hook": "A compelling opening line referencing their specific situation"
}`, info.CompanyName, analysis.Industry, analysis.BusinessType, analysis.GrowthPotential, painPoints, opportunities, serviceCatalog)

	raw, err := e.generate(prompt)
	if err != nil {
		return ServiceMatches{}, err
	}

	var matches ServiceMatches
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &matches); err != nil {
		return ServiceMatches{}, fmt.Errorf("service matching returned unparseable response: %w", err)
	}
	return matches, nil
}

// GenerateEmail writes the personalized cold email for one contact.
func (e *LLMEngine) GenerateEmail(info CompanyInfo, analysis MarketAnalysis, matches ServiceMatches, contact *Contact) (*EmailContent, error) {
	recipient := "Recipient: General Inbox / Decision Maker"
	salutation := fmt.Sprintf("Address them as 'Hi %s Team',", info.CompanyName)
	if contact != nil {
		recipient = fmt.Sprintf("Recipient: %s (%s)\nContext: %s", contact.Name, contact.Role, contact.Context)
		if first := strings.Fields(contact.Name); len(first) > 0 {
			salutation = fmt.Sprintf("Address them as 'Hi %s',", first[0])
		}
	}

	services, _ := json.Marshal(matches.RecommendedServices)
	prompt := fmt.Sprintf(`Write a personalized B2B cold email from a digital growth agency.

Target Company: %s
What they do: %s
Industry: %s
%s

Opening hook to work from: %s
Recommended services to pitch: %s

Instructions:
- %s
- Reference their specific business or value props: %s
- Keep it under 150 words with a clear CTA (book a 15-min call).
- The subject line must be catchy and relevant.

Return JSON with "subject" and "body_html" fields; body_html is the full HTML body.`,
		info.CompanyName, info.WhatTheyDo, analysis.Industry, recipient,
		matches.EmailHook, services, salutation, strings.Join(info.KeyValueProps, ", "))

	raw, err := e.generate(prompt)
	if err != nil {
		return nil, err
	}

	var content EmailContent
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &content); err != nil {
		return nil, fmt.Errorf("email generation returned unparseable response: %w", err)
	}
	return &content, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (e *LLMEngine) generate(prompt string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/models/%s:generateContent", e.BaseURL, e.Model))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-goog-api-key", e.APIKey)
	req.SetBody(payload)

	if err := e.Client.Do(req, resp); err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("LLM request returned status %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("LLM response unreadable: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("LLM returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// stripCodeFence unwraps ```json fenced blocks the model likes to emit.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
