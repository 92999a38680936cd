package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/models"
)

type PackageHandler struct {
	DB *gorm.DB
}

func NewPackageHandler(db *gorm.DB) *PackageHandler {
	return &PackageHandler{DB: db}
}

func (h *PackageHandler) ListPackages(c *fiber.Ctx) error {
	var packages []models.Package
	query := h.DB.Where("is_active = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("price_cents asc").Find(&packages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list packages"})
	}
	return c.JSON(packages)
}

func (h *PackageHandler) GetPackage(c *fiber.Ctx) error {
	packageID, err := uuid.Parse(c.Params("packageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package ID"})
	}

	var pkg models.Package
	if err := h.DB.First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(pkg)
}

type PackageRequest struct {
	Name              string `json:"name" validate:"required"`
	Category          string `json:"category" validate:"required"`
	Description       string `json:"description"`
	PriceCents        int64  `json:"price_cents" validate:"required,gt=0"`
	DepositPercentage int    `json:"deposit_percentage" validate:"min=0,max=100"`
	MaxBookingsPerDay int    `json:"max_bookings_per_day" validate:"required,gt=0"`
}

func (h *PackageHandler) CreatePackage(c *fiber.Ctx) error {
	var req PackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	pkg := models.Package{
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		DepositPercentage: req.DepositPercentage,
		MaxBookingsPerDay: req.MaxBookingsPerDay,
		IsActive:          true,
	}
	if err := h.DB.Create(&pkg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create package"})
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

// UpdatePackage edits the catalog entry. Pricing snapshots frozen into
// existing bookings are not touched.
func (h *PackageHandler) UpdatePackage(c *fiber.Ctx) error {
	packageID, err := uuid.Parse(c.Params("packageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package ID"})
	}

	var req PackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var pkg models.Package
	if err := h.DB.First(&pkg, "id = ?", packageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	pkg.Name = req.Name
	pkg.Category = req.Category
	pkg.Description = req.Description
	pkg.PriceCents = req.PriceCents
	pkg.DepositPercentage = req.DepositPercentage
	pkg.MaxBookingsPerDay = req.MaxBookingsPerDay

	if err := h.DB.Save(&pkg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update package"})
	}
	return c.JSON(pkg)
}

// DeactivatePackage soft-deactivates a package. Packages referenced by
// bookings are never hard-deleted.
func (h *PackageHandler) DeactivatePackage(c *fiber.Ctx) error {
	packageID, err := uuid.Parse(c.Params("packageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package ID"})
	}

	result := h.DB.Model(&models.Package{}).Where("id = ?", packageID).Update("is_active", false)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate package"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}
	return c.JSON(fiber.Map{"message": "Package deactivated"})
}
