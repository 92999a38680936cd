package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/njeri2090/studio_booking/configs"
	"github.com/njeri2090/studio_booking/utils"
)

// BrevoService sends transactional email through the Brevo HTTP API. Email is
// strictly fire-and-forget in this system: a send failure is logged and never
// blocks or rolls back the state change that triggered it.
type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

var EmailClient *BrevoService

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func InitEmailService(cfg *config.Config) {
	if cfg.BrevoAPIKey == "" || cfg.EmailSender == "" || cfg.EmailSenderName == "" {
		utils.InfoLogger.Warn("email service not configured, notifications will be skipped")
		EmailClient = nil
		return
	}

	EmailClient = &BrevoService{
		APIKey:      cfg.BrevoAPIKey,
		SenderEmail: cfg.EmailSender,
		SenderName:  cfg.EmailSenderName,
	}
	utils.InfoLogger.Info("email service initialized")
}

func (s *BrevoService) send(toEmail, toName, subject, htmlContent string) error {
	url := "https://api.brevo.com/v3/smtp/email"

	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send email via Brevo: %s", string(bodyBytes))
	}

	return nil
}

// SendEmail delivers a notification best-effort. Callers fire it from a
// goroutine after commit; it never returns an error.
func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		return
	}

	if err := EmailClient.send(toEmail, toName, subject, htmlContent); err != nil {
		utils.ErrorLogger.Errorf("failed to send email to %s: %v", toEmail, err)
		return
	}

	utils.InfoLogger.Infof("email sent to %s: %s", toEmail, subject)
}
