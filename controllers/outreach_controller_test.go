package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coldreach/models"
	"coldreach/outreach"
	"coldreach/pipeline"
)

type stubTransport struct {
	err   error
	calls int
}

func (s *stubTransport) Send(to, subject, bodyHTML, from string) error {
	s.calls++
	return s.err
}

type stubEngine struct{}

func (stubEngine) AnalyzeContent(text string) pipeline.CompanyInfo {
	return pipeline.CompanyInfo{CompanyName: "Acme", WhatTheyDo: "Robots"}
}

func (stubEngine) AnalyzeMarket(text, companyName string) pipeline.MarketAnalysis {
	return pipeline.MarketAnalysis{Industry: "Robotics"}
}

func (stubEngine) MatchServices(analysis pipeline.MarketAnalysis, info pipeline.CompanyInfo) (pipeline.ServiceMatches, error) {
	return pipeline.ServiceMatches{
		RecommendedServices: []pipeline.ServiceMatch{{ServiceName: "Local SEO"}},
	}, nil
}

func (stubEngine) GenerateEmail(info pipeline.CompanyInfo, analysis pipeline.MarketAnalysis, matches pipeline.ServiceMatches, contact *pipeline.Contact) (*pipeline.EmailContent, error) {
	return &pipeline.EmailContent{Subject: "Hello Acme", BodyHTML: "<p>Hi</p>"}, nil
}

type testHarness struct {
	app       *fiber.App
	db        *gorm.DB
	transport *stubTransport
}

func newHarness(t *testing.T, scrape pipeline.ScrapeFunc) *testHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Prospect{}, &models.SendRecord{}))

	quiet := log.New(io.Discard, "", 0)
	gate := outreach.NewGatekeeper(db, outreach.Config{HourlyLimit: 50, DefaultSender: "a@x.com"}, quiet)
	transport := &stubTransport{}
	coordinator := outreach.NewCoordinator(db, gate, transport, quiet)
	drafter := pipeline.NewDrafter(scrape, stubEngine{}, quiet)

	oc := NewOutreachController(db, gate, coordinator, drafter, quiet)

	app := fiber.New()
	app.Post("/draft-lead", oc.DraftLead)
	app.Post("/send-lead", oc.SendLead)
	app.Get("/activities", oc.GetActivities)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return &testHarness{app: app, db: db, transport: transport}
}

func (h *testHarness) postJSON(t *testing.T, path string, body map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &parsed))
	return resp, parsed
}

func sendBody() map[string]interface{} {
	return map[string]interface{}{
		"company_name":         "Acme",
		"website_url":          "acme.com",
		"primary_email":        "ceo@acme.com",
		"subject":              "Hello Acme",
		"body":                 "<p>Hi</p>",
		"recommended_services": "Local SEO",
	}
}

func TestSendLeadThenDuplicate(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })

	resp, parsed := h.postJSON(t, "/send-lead", sendBody())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, parsed["success"])

	var prospects, records int64
	require.NoError(t, h.db.Model(&models.Prospect{}).Count(&prospects).Error)
	require.NoError(t, h.db.Model(&models.SendRecord{}).Count(&records).Error)
	assert.EqualValues(t, 1, prospects)
	assert.EqualValues(t, 1, records)

	// second send to any spelling of the same identity is refused
	body := sendBody()
	body["website_url"] = " HTTPS://Acme.com "
	resp, parsed = h.postJSON(t, "/send-lead", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, parsed["success"])
	assert.Contains(t, parsed["error"], "already sent")

	require.NoError(t, h.db.Model(&models.Prospect{}).Count(&prospects).Error)
	require.NoError(t, h.db.Model(&models.SendRecord{}).Count(&records).Error)
	assert.EqualValues(t, 1, prospects)
	assert.EqualValues(t, 1, records)
}

func TestSendLeadTransportFailure(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })
	h.transport.err = errors.New("smtp: connection refused")

	resp, parsed := h.postJSON(t, "/send-lead", sendBody())

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, false, parsed["success"])

	var prospects int64
	require.NoError(t, h.db.Model(&models.Prospect{}).Count(&prospects).Error)
	assert.Zero(t, prospects)
}

func TestSendLeadValidation(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })

	body := sendBody()
	delete(body, "primary_email")
	resp, parsed := h.postJSON(t, "/send-lead", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, parsed["success"])
	assert.Zero(t, h.transport.calls)
}

func TestDraftLeadWithScrapeFailureStillDrafts(t *testing.T) {
	h := newHarness(t, func(string) string { return "ERROR SCRAPING: timeout" })

	resp, parsed := h.postJSON(t, "/draft-lead", map[string]interface{}{
		"company_name":  "Acme",
		"website_url":   "acme.com",
		"primary_email": "ceo@acme.com",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, parsed["success"])

	draft := parsed["draft"].(map[string]interface{})
	assert.Equal(t, "https://acme.com", draft["website_url"])
	assert.Equal(t, "Organic SEO", draft["recommended_services"])
	assert.NotEmpty(t, draft["subject"])
}

func TestDraftLeadBlockedForContactedProspect(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })

	_, _ = h.postJSON(t, "/send-lead", sendBody())

	resp, parsed := h.postJSON(t, "/draft-lead", map[string]interface{}{
		"company_name":  "Acme",
		"website_url":   "acme.com",
		"primary_email": "ceo@acme.com",
	})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, parsed["success"])
}

func TestActivitiesLimitAndOrder(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })

	for i, site := range []string{"a.com", "b.com", "c.com"} {
		body := sendBody()
		body["website_url"] = site
		body["primary_email"] = fmt.Sprintf("ceo%d@%s", i, site)
		resp, _ := h.postJSON(t, "/send-lead", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/activities?limit=2", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Activities []outreach.Activity `json:"activities"`
	}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &parsed))

	require.Len(t, parsed.Activities, 2)
	assert.False(t, parsed.Activities[0].SentAt.Before(parsed.Activities[1].SentAt))
}

func TestSendLeadWithoutWebsiteGetsSyntheticIdentity(t *testing.T) {
	h := newHarness(t, func(string) string { return "site text" })

	body := sendBody()
	body["website_url"] = ""
	resp, parsed := h.postJSON(t, "/send-lead", body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, parsed["success"])

	var prospect models.Prospect
	require.NoError(t, h.db.First(&prospect).Error)
	assert.Contains(t, prospect.WebsiteURL, "lead-token://")

	// a second URL-less send must not collide with the first
	resp, _ = h.postJSON(t, "/send-lead", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
