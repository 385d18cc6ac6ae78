package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// sampleUser is the canned payload for the public demo endpoint.
type sampleUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SampleUser returns a fixed demo user; no authentication required.
func SampleUser(c echo.Context) error {
	return c.JSON(http.StatusOK, sampleUser{ID: 1, Name: "Jay", Email: "jay@example.com"})
}

// SampleMessage returns a fixed demo string; no authentication required.
func SampleMessage(c echo.Context) error {
	return c.String(http.StatusOK, "Hello from the auth backend!")
}
