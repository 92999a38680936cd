package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/middleware"
)

func newAuthTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	h := NewAuthHandler(db, testJWTSecret)
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)

	bookings := NewBookingHandler(db, nil)
	protected := app.Group("/bookings", middleware.Protected(testJWTSecret))
	protected.Get("/me", bookings.GetMyBookings)

	return app
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthTestApp(db)

	resp := doJSON(t, app, "POST", "/auth/register", "", RegisterRequest{
		FullName: "Jane Client",
		Email:    "jane@example.com",
		Password: "secret123",
		Phone:    "+15550100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user UserResponse
	decodeJSON(t, resp, &user)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "client", user.Role)
	assert.NotEmpty(t, user.ID)

	resp = doJSON(t, app, "POST", "/auth/login", "", LoginRequest{
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login map[string]string
	decodeJSON(t, resp, &login)
	require.NotEmpty(t, login["token"])

	// The issued token works against a protected route.
	resp = doJSON(t, app, "GET", "/bookings/me", login["token"], nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthTestApp(db)

	req := RegisterRequest{FullName: "Jane Client", Email: "jane@example.com", Password: "secret123"}
	resp := doJSON(t, app, "POST", "/auth/register", "", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthTestApp(db)

	bad := []RegisterRequest{
		{FullName: "J", Email: "jane@example.com", Password: "secret123"},
		{FullName: "Jane", Email: "not-an-email", Password: "secret123"},
		{FullName: "Jane", Email: "jane@example.com", Password: "short"},
	}
	for _, req := range bad {
		resp := doJSON(t, app, "POST", "/auth/register", "", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthTestApp(db)

	resp := doJSON(t, app, "POST", "/auth/register", "", RegisterRequest{
		FullName: "Jane Client", Email: "jane@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/auth/login", "", LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
