package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coldreach/outreach"
	"coldreach/pipeline"
	"coldreach/utils"
)

type OutreachController struct {
	DB          *gorm.DB
	Gate        *outreach.Gatekeeper
	Coordinator *outreach.Coordinator
	Drafter     *pipeline.Drafter
	Logger      *log.Logger
}

func NewOutreachController(db *gorm.DB, gate *outreach.Gatekeeper, coordinator *outreach.Coordinator, drafter *pipeline.Drafter, logger *log.Logger) *OutreachController {
	return &OutreachController{
		DB:          db,
		Gate:        gate,
		Coordinator: coordinator,
		Drafter:     drafter,
		Logger:      logger,
	}
}

// DraftLead checks eligibility, analyzes the prospect's site and returns
// a draft. Nothing is persisted and nothing is sent.
func (oc *OutreachController) DraftLead(c *fiber.Ctx) error {
	var input struct {
		CompanyName  string `json:"company_name" validate:"required,max=255"`
		WebsiteURL   string `json:"website_url" validate:"required,max=500"`
		PrimaryEmail string `json:"primary_email" validate:"required,email"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := utils.ValidateEmailAddress(input.PrimaryEmail); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	identity := outreach.NormalizeURL(input.WebsiteURL)

	// The duplicate check blocks drafting too: there is no point drafting
	// for a prospect we already contacted.
	if _, err := oc.Gate.Check(identity, "", time.Now().UTC()); err != nil {
		return oc.outreachError(c, err)
	}

	oc.Logger.Printf("Analyzing %s for personalization...", identity)
	draft, err := oc.Drafter.Draft(identity, input.CompanyName, input.PrimaryEmail)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate draft", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"draft":   draft,
	})
}

// SendLead delivers an approved draft and records it. The coordinator
// re-runs the eligibility check; this path's check is the authoritative
// one.
func (oc *OutreachController) SendLead(c *fiber.Ctx) error {
	var input struct {
		CompanyName         string `json:"company_name" validate:"required,max=255"`
		WebsiteURL          string `json:"website_url" validate:"omitempty,max=500"`
		PrimaryEmail        string `json:"primary_email" validate:"required,email"`
		Subject             string `json:"subject" validate:"required"`
		Body                string `json:"body" validate:"required"`
		RecommendedServices string `json:"recommended_services"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// Sends without a website get a synthetic identity so they never
	// collide with real URLs in the dedup space.
	identity := outreach.SyntheticIdentity()
	if input.WebsiteURL != "" {
		identity = outreach.NormalizeURL(input.WebsiteURL)
	}

	draft := outreach.EmailDraft{
		To:                  input.PrimaryEmail,
		Subject:             input.Subject,
		BodyHTML:            input.Body,
		CompanyName:         input.CompanyName,
		RecommendedServices: input.RecommendedServices,
	}

	if err := oc.Coordinator.Send(draft, identity, ""); err != nil {
		return oc.outreachError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetActivities returns the recent sends, newest first.
func (oc *OutreachController) GetActivities(c *fiber.Ctx) error {
	limit := utils.ParseInt(c.Query("limit", "10"), 10)

	activities, err := outreach.RecentActivity(oc.DB, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities", err)
	}

	return c.JSON(fiber.Map{"activities": activities})
}

// outreachError maps the outreach error taxonomy onto status codes.
func (oc *OutreachController) outreachError(c *fiber.Ctx, err error) error {
	var (
		duplicate   *outreach.DuplicateProspectError
		rateLimit   *outreach.RateLimitExceededError
		transport   *outreach.TransportError
		bookkeeping *outreach.PostSendBookkeepingError
	)

	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &duplicate):
		status = fiber.StatusConflict
	case errors.As(err, &rateLimit):
		status = fiber.StatusTooManyRequests
	case errors.As(err, &transport):
		status = fiber.StatusBadGateway
	case errors.As(err, &bookkeeping):
		// already logged loudly by the coordinator
		status = fiber.StatusInternalServerError
	}

	return utils.ErrorResponse(c, status, err.Error(), nil)
}
