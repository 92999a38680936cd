package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/database"
	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/services"
	"github.com/njeri2090/studio_booking/utils"
	"github.com/njeri2090/studio_booking/websocket"
)

type DeliveryHandler struct {
	DB      *gorm.DB
	Assets  services.AssetUploader
	Hub     *websocket.Hub
	BaseURL string
}

func NewDeliveryHandler(db *gorm.DB, assets services.AssetUploader, hub *websocket.Hub, baseURL string) *DeliveryHandler {
	return &DeliveryHandler{DB: db, Assets: assets, Hub: hub, BaseURL: baseURL}
}

// CreateDelivery attaches the finished gallery to a booking, exactly once.
// Photo uploads are all-or-nothing: the first upload failure aborts the whole
// request and already-uploaded assets are destroyed best-effort, so a partial
// gallery is never persisted.
func (h *DeliveryHandler) CreateDelivery(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	var existing models.Delivery
	if err := h.DB.Where("booking_id = ?", bookingID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": services.ErrDeliveryAlreadyExists.Error()})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expected multipart form data"})
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrEmptyDelivery.Error()})
	}

	albumName := c.FormValue("album_name")
	if albumName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "album_name is required"})
	}

	isPublic := c.FormValue("is_public") == "true"
	allowDownload := c.FormValue("allow_download", "true") == "true"
	watermarkEnabled := c.FormValue("watermark_enabled") == "true"
	password := c.FormValue("password")

	if !isPublic && password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A private delivery requires a password"})
	}

	var expiresAt *time.Time
	if raw := c.FormValue("expires_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expires_at, expected RFC3339"})
		}
		expiresAt = &parsed
	}

	var passwordHash *string
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}
		s := string(hashed)
		passwordHash = &s
	}

	folder := fmt.Sprintf("studio_deliveries/%s", booking.ID)
	ctx := context.Background()
	type uploaded struct {
		url      string
		publicID string
	}
	var assets []uploaded

	cleanup := func() {
		for _, a := range assets {
			if err := h.Assets.Destroy(ctx, a.publicID); err != nil {
				utils.ErrorLogger.Errorf("failed to clean up asset %s: %v", a.publicID, err)
			}
		}
	}

	for i, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			cleanup()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read uploaded photo"})
		}

		publicID := fmt.Sprintf("photo_%03d_%s", i, uuid.New())
		url, err := h.Assets.Upload(ctx, file, folder, publicID)
		file.Close()
		if err != nil {
			utils.ErrorLogger.Errorf("asset upload failed for booking %s: %v", booking.ID, err)
			cleanup()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Photo upload failed, no delivery was created"})
		}
		assets = append(assets, uploaded{url: url, publicID: folder + "/" + publicID})
	}

	var delivery models.Delivery
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		delivery = models.Delivery{
			BookingID:        booking.ID,
			AlbumName:        albumName,
			ExpiresAt:        expiresAt,
			IsPublic:         isPublic,
			PasswordHash:     passwordHash,
			AllowDownload:    allowDownload,
			WatermarkEnabled: watermarkEnabled,
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return err
		}

		for i, a := range assets {
			photo := models.DeliveryPhoto{
				DeliveryID: delivery.ID,
				Position:   i,
				AssetURL:   a.url,
				PublicID:   a.publicID,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
			delivery.Photos = append(delivery.Photos, photo)
		}

		if err := database.WithRowLock(tx).First(&booking, "id = ?", booking.ID).Error; err != nil {
			return err
		}
		booking.PhotosDelivered = true
		if booking.Status != models.BookingCompleted && services.CanTransition(booking.Status, models.BookingCompleted) {
			now := time.Now()
			booking.Status = models.BookingCompleted
			booking.CompletedAt = &now
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		cleanup()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create delivery"})
	}

	accessLink := fmt.Sprintf("%s/deliveries/%s", h.BaseURL, delivery.ID)
	h.Hub.Broadcast(websocket.EventDeliveryCreated, delivery)
	go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
		"Your Photos Are Ready!",
		fmt.Sprintf("<h1>Gallery Delivered</h1><p>Your album '%s' is ready.</p><p><a href='%s'>View your gallery</a></p>",
			delivery.AlbumName, accessLink))

	return c.Status(fiber.StatusCreated).JSON(delivery)
}

// authorizeAccess applies the delivery's own access scheme: expiry first,
// then the gallery password for private (or password-protected) galleries.
func (h *DeliveryHandler) authorizeAccess(c *fiber.Ctx, delivery *models.Delivery) error {
	if delivery.ExpiresAt != nil && time.Now().After(*delivery.ExpiresAt) {
		return services.ErrDeliveryExpired
	}

	if delivery.PasswordHash != nil {
		password := c.Query("password")
		if password == "" {
			password = c.Get("X-Gallery-Password")
		}
		if bcrypt.CompareHashAndPassword([]byte(*delivery.PasswordHash), []byte(password)) != nil {
			return errForbidden
		}
		return nil
	}

	if !delivery.IsPublic {
		return errForbidden
	}
	return nil
}

func (h *DeliveryHandler) GetDelivery(c *fiber.Ctx) error {
	deliveryID, err := uuid.Parse(c.Params("deliveryId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery ID"})
	}

	var delivery models.Delivery
	if err := h.DB.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&delivery, "id = ?", deliveryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Delivery not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := h.authorizeAccess(c, &delivery); err != nil {
		switch {
		case errors.Is(err, services.ErrDeliveryExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access to this gallery is restricted"})
		}
	}

	// Approximate counter, incremented out of band of the read itself.
	h.DB.Model(&models.Delivery{}).Where("id = ?", delivery.ID).
		Update("view_count", gorm.Expr("view_count + 1"))
	delivery.ViewCount++

	return c.JSON(delivery)
}

// DownloadDelivery hands out the original asset URLs when downloads are
// enabled for the gallery.
func (h *DeliveryHandler) DownloadDelivery(c *fiber.Ctx) error {
	deliveryID, err := uuid.Parse(c.Params("deliveryId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery ID"})
	}

	var delivery models.Delivery
	if err := h.DB.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&delivery, "id = ?", deliveryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Delivery not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := h.authorizeAccess(c, &delivery); err != nil {
		switch {
		case errors.Is(err, services.ErrDeliveryExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access to this gallery is restricted"})
		}
	}

	if !delivery.AllowDownload {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrDownloadsDisabled.Error()})
	}

	h.DB.Model(&models.Delivery{}).Where("id = ?", delivery.ID).
		Update("download_count", gorm.Expr("download_count + 1"))

	urls := make([]string, 0, len(delivery.Photos))
	for _, photo := range delivery.Photos {
		urls = append(urls, photo.AssetURL)
	}
	return c.JSON(fiber.Map{"album_name": delivery.AlbumName, "downloads": urls})
}

// AddPhotos appends photos to an existing delivery. The photo list is
// append-only; nothing already delivered is ever removed here.
func (h *DeliveryHandler) AddPhotos(c *fiber.Ctx) error {
	deliveryID, err := uuid.Parse(c.Params("deliveryId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery ID"})
	}

	var delivery models.Delivery
	if err := h.DB.Preload("Photos").First(&delivery, "id = ?", deliveryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Delivery not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expected multipart form data"})
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrEmptyDelivery.Error()})
	}

	folder := fmt.Sprintf("studio_deliveries/%s", delivery.BookingID)
	ctx := context.Background()
	position := len(delivery.Photos)

	for i, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read uploaded photo"})
		}

		publicID := fmt.Sprintf("photo_%03d_%s", position+i, uuid.New())
		url, err := h.Assets.Upload(ctx, file, folder, publicID)
		file.Close()
		if err != nil {
			utils.ErrorLogger.Errorf("asset upload failed for delivery %s: %v", delivery.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Photo upload failed"})
		}

		photo := models.DeliveryPhoto{
			DeliveryID: delivery.ID,
			Position:   position + i,
			AssetURL:   url,
			PublicID:   folder + "/" + publicID,
		}
		if err := h.DB.Create(&photo).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record photo"})
		}
		delivery.Photos = append(delivery.Photos, photo)
	}

	return c.JSON(delivery)
}
