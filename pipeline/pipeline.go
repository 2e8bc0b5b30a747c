package pipeline

import (
	"fmt"
	"log"
	"strings"
)

// ScrapeFunc fetches site text; failures come back as a sentinel string,
// never as an error.
type ScrapeFunc func(url string) string

// Engine is the language-model collaborator set the drafter sequences.
type Engine interface {
	AnalyzeContent(text string) CompanyInfo
	AnalyzeMarket(text, companyName string) MarketAnalysis
	MatchServices(analysis MarketAnalysis, info CompanyInfo) (ServiceMatches, error)
	GenerateEmail(info CompanyInfo, analysis MarketAnalysis, matches ServiceMatches, contact *Contact) (*EmailContent, error)
}

// Draft is the pipeline's output, ready for review before sending.
type Draft struct {
	Subject             string `json:"subject"`
	Body                string `json:"body"`
	CompanyName         string `json:"company_name"`
	WebsiteURL          string `json:"website_url"`
	PrimaryEmail        string `json:"primary_email"`
	RecommendedServices string `json:"recommended_services"`
}

// Drafter sequences scrape -> analyze -> market -> match -> generate into
// one draft, isolating collaborator failures from the gate/send logic.
type Drafter struct {
	Scrape ScrapeFunc
	Engine Engine
	Logger *log.Logger
}

func NewDrafter(scrape ScrapeFunc, engine Engine, logger *log.Logger) *Drafter {
	return &Drafter{
		Scrape: scrape,
		Engine: engine,
		Logger: logger,
	}
}

// Draft produces a personalized email for the identity. A failed or empty
// scrape falls back to a fixed generic profile so the caller always gets
// some draft; any collaborator failure after a successful scrape
// propagates.
func (d *Drafter) Draft(identity, companyName, contactEmail string) (*Draft, error) {
	scraped := d.Scrape(identity)

	var (
		info     CompanyInfo
		analysis MarketAnalysis
		matches  ServiceMatches
	)

	if scraped != "" && !strings.HasPrefix(scraped, "ERROR SCRAPING") {
		info = d.Engine.AnalyzeContent(scraped)
		analysis = d.Engine.AnalyzeMarket(scraped, companyName)

		var err error
		matches, err = d.Engine.MatchServices(analysis, info)
		if err != nil {
			return nil, err
		}
	} else {
		d.Logger.Printf("Scraping failed or empty for %s, generating generic draft: %.100s", identity, scraped)
		info = CompanyInfo{CompanyName: companyName, WhatTheyDo: "Unknown"}
		analysis = MarketAnalysis{
			Industry:        "Unknown",
			GrowthPotential: "High",
			PainPoints:      []string{"Lead Generation", "Visibility"},
		}
		matches = ServiceMatches{
			RecommendedServices: []ServiceMatch{{
				ServiceName:    "Organic SEO",
				WhyRelevant:    "Standard growth requirement",
				ExpectedImpact: "More leads",
			}},
			EmailHook: "Growth",
		}
	}

	subject := fmt.Sprintf("Partnership Opportunity with %s", companyName)
	body := fmt.Sprintf("<p>Hi %s Team,</p><p>We'd love to partner.</p>", companyName)

	contact := &Contact{Name: companyName, Email: contactEmail, Role: "Decision Maker"}
	content, err := d.Engine.GenerateEmail(info, analysis, matches, contact)
	if err != nil {
		return nil, err
	}
	if content.Subject != "" {
		subject = content.Subject
	}
	if content.BodyHTML != "" {
		body = content.BodyHTML
	}

	var names []string
	for _, match := range matches.RecommendedServices {
		if match.ServiceName != "" {
			names = append(names, match.ServiceName)
		}
	}

	return &Draft{
		Subject:             subject,
		Body:                body,
		CompanyName:         companyName,
		WebsiteURL:          identity,
		PrimaryEmail:        contactEmail,
		RecommendedServices: strings.Join(names, ", "),
	}, nil
}
