package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	config "github.com/njeri2090/studio_booking/configs"
	"github.com/njeri2090/studio_booking/database"
	"github.com/njeri2090/studio_booking/handlers"
	"github.com/njeri2090/studio_booking/jobs"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/payments"
	"github.com/njeri2090/studio_booking/routes"
	"github.com/njeri2090/studio_booking/services"
	"github.com/njeri2090/studio_booking/utils"
	ws "github.com/njeri2090/studio_booking/websocket"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("failed to run migrations: %v", err)
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		utils.ErrorLogger.Fatalf("failed to seed admin account: %v", err)
	}
	notifications.InitEmailService(cfg)

	var assets services.AssetUploader
	if cfg.CloudinaryURL != "" {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryURL)
		if err != nil {
			utils.ErrorLogger.Fatalf("failed to initialize cloudinary: %v", err)
		}
		assets = cld
	} else {
		utils.InfoLogger.Println("CLOUDINARY_URL not set, photo delivery and receipt upload disabled")
	}

	hub := ws.NewHub()
	processor := payments.NewClient(cfg)
	receipts := services.NewReceiptService(assets)
	reconciler := services.NewPaymentReconciler(db, hub, receipts)

	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	packageHandler := handlers.NewPackageHandler(db)
	bookingHandler := handlers.NewBookingHandler(db, hub)
	paymentHandler := handlers.NewPaymentHandler(db, processor, reconciler, cfg.Currency)
	deliveryHandler := handlers.NewDeliveryHandler(db, assets, hub, cfg.DeliveryBaseURL)
	adminHandler := handlers.NewAdminHandler(db)

	background := jobs.New(db, processor, reconciler)
	c := cron.New()
	c.AddFunc("*/10 * * * *", background.ReconcilePendingIntents)
	c.AddFunc("0 8 * * *", background.SendSessionReminders)
	go c.Start()
	utils.InfoLogger.Println("background jobs scheduled")

	app := fiber.New(fiber.Config{
		AppName:      "Studio Booking",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			utils.ErrorLogger.Errorf("%v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Stripe-Signature, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.PublicRoutes(app, authHandler, packageHandler, bookingHandler, deliveryHandler)
	routes.BookingRoutes(app, cfg.JWTSecret, bookingHandler)
	routes.PaymentRoutes(app, cfg.JWTSecret, paymentHandler)
	routes.AdminRoutes(app, cfg.JWTSecret, packageHandler, bookingHandler, paymentHandler, deliveryHandler, adminHandler)
	routes.WebsocketRoutes(app, cfg.JWTSecret, hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	utils.InfoLogger.Printf("server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatalf("server failed to start: %v", err)
	}
}
