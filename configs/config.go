package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment. It is built
// once in main and handed to the components that need it.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string

	StripeAPIBaseURL    string
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	CloudinaryURL   string
	DeliveryBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminFullName: os.Getenv("ADMIN_FULL_NAME"),

		BrevoAPIKey:     os.Getenv("BREVO_API_KEY"),
		EmailSender:     os.Getenv("EMAIL_SENDER"),
		EmailSenderName: os.Getenv("EMAIL_SENDER_NAME"),

		StripeAPIBaseURL:    getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getEnv("CURRENCY", "usd"),

		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		DeliveryBaseURL: getEnv("DELIVERY_BASE_URL", "http://localhost:8080"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
