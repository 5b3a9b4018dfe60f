package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestSignup(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doRequest(t, app, "POST", "/api/auth/signup", "", map[string]string{
		"email":    "newuser@example.com",
		"password": "password123",
		"fullname": "Сидоров С.С.",
		"gender":   "Мужской",
		"born":     "1992-05-20",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["user"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	payload := map[string]string{
		"email":    "dup@example.com",
		"password": "password123",
		"fullname": "Сидоров С.С.",
		"born":     "1992-05-20",
	}

	resp := doRequest(t, app, "POST", "/api/auth/signup", "", payload)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/auth/signup", "", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "user@example.com", "Петров П.П.", false)

	resp := doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "password",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.NotEmpty(t, result["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "user@example.com", "Петров П.П.", false)

	resp := doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "user@example.com", "Петров П.П.", false)

	resp := doRequest(t, app, "GET", "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, "user@example.com", result["email"])
	assert.Equal(t, "Петров П.П.", result["fio"])
}

func TestMeWithoutToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doRequest(t, app, "GET", "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
