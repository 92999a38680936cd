package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/database"
	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/utils"
)

const testJWTSecret = "test-jwt-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	utils.InitLogger()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	user := models.User{
		FullName: "Test User",
		Email:    email,
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestPackage(t *testing.T, db *gorm.DB, priceCents int64, depositPct, maxPerDay int) models.Package {
	pkg := models.Package{
		Name:              "Golden Hour Portraits",
		Category:          "portrait",
		Description:       "One hour outdoor session",
		PriceCents:        priceCents,
		DepositPercentage: depositPct,
		MaxBookingsPerDay: maxPerDay,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&pkg).Error)
	return pkg
}

func authToken(t *testing.T, userID uuid.UUID, role string) string {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(bookingDateLayout)
}
