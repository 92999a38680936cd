package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/utils"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: Georgia, serif; margin: 48px; color: #222; }
h1 { letter-spacing: 2px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
td { padding: 8px 0; border-bottom: 1px solid #ddd; }
td.amount { text-align: right; }
.total td { font-weight: bold; border-bottom: none; }
.footer { margin-top: 48px; font-size: 12px; color: #888; }
</style></head>
<body>
<h1>PAYMENT RECEIPT</h1>
<p>Booking {{.BookingID}} &middot; {{.PackageName}}</p>
<p>Session date: {{.BookingDate}} at {{.BookingTime}}</p>
<table>
<tr><td>Package price</td><td class="amount">{{.PackagePrice}}</td></tr>
<tr><td>Deposit</td><td class="amount">{{.Deposit}}</td></tr>
<tr><td>Remaining balance</td><td class="amount">{{.Remaining}}</td></tr>
<tr class="total"><td>Total paid</td><td class="amount">{{.TotalPaid}}</td></tr>
</table>
<p class="footer">Issued {{.IssuedAt}}. Thank you for choosing our studio.</p>
</body>
</html>`

// ReceiptService renders a payment receipt to PDF and mails the client a link
// once a booking is fully paid. Everything here is best effort: a failure is
// logged and never propagated back into payment state.
type ReceiptService struct {
	Assets AssetUploader
}

func NewReceiptService(assets AssetUploader) *ReceiptService {
	return &ReceiptService{Assets: assets}
}

func (s *ReceiptService) GenerateAndSend(booking models.Booking) {
	if s == nil || s.Assets == nil {
		return
	}

	html, err := renderReceiptHTML(booking)
	if err != nil {
		utils.ErrorLogger.Errorf("failed to render receipt HTML for booking %s: %v", booking.ID, err)
		return
	}

	pdfBytes, err := renderPDF(html)
	if err != nil {
		utils.ErrorLogger.Errorf("failed to render receipt PDF for booking %s: %v", booking.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publicID := fmt.Sprintf("%s_%s", booking.ID, uuid.New())
	url, err := s.Assets.Upload(ctx, bytes.NewReader(pdfBytes), "studio_receipts", publicID)
	if err != nil {
		utils.ErrorLogger.Errorf("failed to upload receipt for booking %s: %v", booking.ID, err)
		return
	}

	notifications.SendEmail(booking.ContactName, booking.ContactEmail,
		"Your Payment Receipt",
		fmt.Sprintf("<h1>Payment Complete</h1><p>Thank you! Your session on %s is fully paid.</p><p><a href='%s'>Download your receipt</a></p>",
			booking.BookingDate.Format("January 2, 2006"), url))

	utils.InfoLogger.Infof("receipt generated for booking %s", booking.ID)
}

func renderReceiptHTML(booking models.Booking) (string, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		BookingID    string
		PackageName  string
		BookingDate  string
		BookingTime  string
		PackagePrice string
		Deposit      string
		Remaining    string
		TotalPaid    string
		IssuedAt     string
	}{
		BookingID:    booking.ID.String(),
		PackageName:  booking.Package.Name,
		BookingDate:  booking.BookingDate.Format("January 2, 2006"),
		BookingTime:  booking.BookingTime,
		PackagePrice: utils.FormatCents(booking.PackagePriceCents),
		Deposit:      utils.FormatCents(booking.DepositAmountCents),
		Remaining:    utils.FormatCents(booking.RemainingAmountCents),
		TotalPaid:    utils.FormatCents(booking.TotalPaidCents),
		IssuedAt:     time.Now().Format("January 2, 2006"),
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func renderPDF(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
