// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "localhost",
			Port:        8000,
			BaseURL:     "http://localhost:8000/",
			MaxBodySize: 1,
		},
		Auth: config.AuthConfig{
			SecretKey:                "test-secret",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 300,
			ResetTokenExpireMinutes:  60,
			BcryptCost:               bcrypt.MinCost,
		},
		Mail: config.MailConfig{
			Server: "localhost",
			From:   "noreply@localhost",
		},
	}
}

type testApp struct {
	e        *echo.Echo
	services *Services
	mailer   *testutil.RecordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, _ := testutil.NewTestDB(t)
	mailer := &testutil.RecordingMailer{}

	services, err := NewServices(testConfig(), mailer)
	require.NoError(t, err)

	return &testApp{
		e:        NewRouter(testConfig(), db, services),
		services: services,
		mailer:   mailer,
	}
}

func (a *testApp) post(path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestNewServices_InvalidAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Algorithm = "RS256"

	_, err := NewServices(cfg, &testutil.RecordingMailer{})

	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestRouter_NotFound(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestRouter_TrailingSlashRedirect(t *testing.T) {
	app := newTestApp(t)

	rec := app.post("/v1/auth/login/", `{}`, nil)

	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/v1/auth/login", rec.Header().Get(echo.HeaderLocation))
}

func TestRouter_BodyLimit(t *testing.T) {
	app := newTestApp(t)

	body := `{"email":"a@x.com","password":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := app.post("/v1/auth/register", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_UsersRequireToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestRouter_RegistrationMailIsLocalized(t *testing.T) {
	app := newTestApp(t)

	rec := app.post("/v1/auth/register", `{"email":"a@x.com","password":"Abcd123!"}`, map[string]string{
		"Accept-Language": "de-DE,de;q=0.9",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	app.services.Dispatcher.Wait()

	msg, ok := app.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Bestätigung der Registrierung", msg.Subject)
	assert.Contains(t, msg.Body, "http://localhost:8000/confirm?email=a%40x.com&code=")
}

func TestRouter_FullFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.post("/v1/auth/register", `{"email":"a@x.com","password":"Abcd123!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	app.services.Dispatcher.Wait()

	msg, ok := app.mailer.Last()
	require.True(t, ok)
	link := msg.Body[strings.Index(msg.Body, "http://"):]
	link = strings.Fields(link)[0]
	code := testutil.CodeFromLink(t, link)

	codeJSON, err := json.Marshal(code)
	require.NoError(t, err)
	rec = app.post("/v1/auth/confirm", `{"email":"a@x.com","code":`+string(codeJSON)+`}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.post("/v1/auth/login", `{"username":"a@x.com","password":"Abcd123!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&token))

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token.AccessToken)
	rec = httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_items":1`)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("login_failed", "reason", "invalid_password")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"login_failed"`)
	assert.Contains(t, buf.String(), `"reason":"invalid_password"`)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "debug", "text")
	logger.Debug("mail_sent", "kind", "confirmation")

	assert.Contains(t, buf.String(), "mail_sent")
}
