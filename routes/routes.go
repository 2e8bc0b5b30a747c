package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"coldreach/config"
	controller "coldreach/controllers"
	"coldreach/middleware"
	"coldreach/outreach"
	"coldreach/pipeline"
	"coldreach/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	outreachLogger := log.New(os.Stdout, "OUTREACH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// The gates get their config explicitly; nothing in outreach reads
	// config.AppConfig on its own.
	gate := outreach.NewGatekeeper(db, outreach.Config{
		HourlyLimit:   config.AppConfig.HourlyEmailLimit,
		DefaultSender: config.AppConfig.SenderEmail,
	}, outreachLogger)

	mailer := utils.NewMailer(&config.AppConfig, log.New(os.Stdout, "MAILER: ", log.LstdFlags))
	coordinator := outreach.NewCoordinator(db, gate, mailer, outreachLogger)

	engine := pipeline.NewLLMEngine(config.AppConfig.GeminiAPIKey, log.New(os.Stdout, "LLM: ", log.LstdFlags))
	drafter := pipeline.NewDrafter(pipeline.ScrapeWebsite, engine, log.New(os.Stdout, "PIPELINE: ", log.LstdFlags))

	outreachController := controller.NewOutreachController(db, gate, coordinator, drafter, outreachLogger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	api.Post("/draft-lead", middleware.DraftRateLimiter(), outreachController.DraftLead)
	api.Post("/send-lead", outreachController.SendLead)
	api.Get("/activities", outreachController.GetActivities)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Println("Outreach routes initialized successfully")
}
