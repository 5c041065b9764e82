// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/go-auth-api/internal/handlers"
	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*echo.Echo, *repository.Repository, *testutil.FakeMailer) {
	t.Helper()
	require.NoError(t, i18n.Init())

	_, repo := testutil.NewTestDB(t)
	mailer := &testutil.FakeMailer{}
	service := auth.NewService(repo, testutil.NewTestSigner(t), mailer)

	e := echo.New()
	a := handlers.NewAuth(service)
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/signin", a.Signin)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/verify/email", a.VerifyEmail)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	return e, repo, mailer
}

func postJSON(e *echo.Echo, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) models.TokenPair {
	t.Helper()
	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestSignupEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := postJSON(e, "/auth/signup", `{"email":"new@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	decodePair(t, rec)
}

func TestSignupEndpoint_DuplicateEmail(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := postJSON(e, "/auth/signup", `{"email":"new@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(e, "/auth/signup", `{"email":"new@example.com","password":"Password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupEndpoint_Validation(t *testing.T) {
	e, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"invalid email", `{"email":"not-an-email","password":"Password1"}`},
		{"weak password", `{"email":"new@example.com","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(e, "/auth/signup", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignupEndpoint_NormalizesEmail(t *testing.T) {
	e, repo, _ := newTestServer(t)

	rec := postJSON(e, "/auth/signup", `{"email":" New@Example.COM ","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err := repo.GetUserByEmail(t.Context(), "new@example.com")
	assert.NoError(t, err)
}

func TestSigninEndpoint(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/signin", `{"email":"user@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodePair(t, rec)
}

func TestSigninEndpoint_WrongPassword(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/signin", `{"email":"user@example.com","password":"WrongPassword1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSigninEndpoint_UnknownEmail(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := postJSON(e, "/auth/signin", `{"email":"nobody@example.com","password":"Password1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/signin", `{"email":"user@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)

	rec = postJSON(e, "/auth/refresh", `{"email":"user@example.com"}`,
		echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodePair(t, rec)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The rotated-out token is rejected.
	rec = postJSON(e, "/auth/refresh", `{"email":"user@example.com"}`,
		echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpoint_MissingBearer(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/refresh", `{"email":"user@example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/signin", `{"email":"user@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)

	rec = postJSON(e, "/auth/logout", `{"email":"user@example.com"}`,
		echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(e, "/auth/refresh", `{"email":"user@example.com"}`,
		echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	e, _, mailer := newTestServer(t)

	rec := postJSON(e, "/auth/signup", `{"email":"new@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	hash := mailer.LastActivation(t).Payload

	req := httptest.NewRequest(http.MethodGet,
		"/auth/verify/email?email=new@example.com&hash="+url.QueryEscape(hash), nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Success! Account verified now, you need to login.", res.Body.String())
}

func TestVerifyEmailEndpoint_FailureIsGenericAnd200(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := postJSON(e, "/auth/signup", `{"email":"new@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	urls := []string{
		"/auth/verify/email?email=new@example.com&hash=bogus",
		"/auth/verify/email?email=nobody@example.com&hash=bogus",
		"/auth/verify/email?email=new@example.com",
	}

	for _, target := range urls {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		res := httptest.NewRecorder()
		e.ServeHTTP(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Invalid action", res.Body.String())
	}
}

func TestForgotPasswordEndpoint(t *testing.T) {
	e, repo, mailer := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/forgot-password", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, mailer.LastReset(t).Payload, 6)
}

func TestForgotPasswordEndpoint_UnknownEmail(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := postJSON(e, "/auth/forgot-password", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetPasswordEndpoint(t *testing.T) {
	e, repo, mailer := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/forgot-password", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	token := mailer.LastReset(t).Payload

	rec = postJSON(e, "/auth/reset-password",
		`{"email":"user@example.com","password":"NewPassword1","token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodePair(t, rec)

	rec = postJSON(e, "/auth/signin", `{"email":"user@example.com","password":"NewPassword1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPasswordEndpoint_BadToken(t *testing.T) {
	e, repo, _ := newTestServer(t)
	testutil.NewTestUser(t, repo, "user@example.com", "Password1")

	rec := postJSON(e, "/auth/forgot-password", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(e, "/auth/reset-password",
		`{"email":"user@example.com","password":"NewPassword1","token":"WRONG1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPasswordEndpoint_Validation(t *testing.T) {
	e, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"email":"user@example.com","password":"NewPassword1"}`},
		{"weak password", `{"email":"user@example.com","password":"short","token":"ABC123"}`},
		{"invalid email", `{"email":"nope","password":"NewPassword1","token":"ABC123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(e, "/auth/reset-password", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
