package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/middleware"
	"github.com/tanroads/rrs-api/internal/models"
)

func testContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestApplicationHandlerCreateUnauthorized(t *testing.T) {
	handler := NewApplicationHandler(nil)
	c, w := testContext(t, http.MethodPost, "/applications", []byte(`{}`))

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplicationHandlerSubmitInvalidID(t *testing.T) {
	handler := NewApplicationHandler(nil)
	c, w := testContext(t, http.MethodPost, "/applications/abc/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RolePublicApplicant})

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandlerDecisionInvalidBody(t *testing.T) {
	handler := NewApplicationHandler(nil)
	c, w := testContext(t, http.MethodPost, "/applications/1/decision", []byte(`not json`))
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "m1", Role: models.RoleMinister})

	handler.RecordDecision(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil)
	c, w := testContext(t, http.MethodPost, "/auth/login", []byte(`{`))

	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseApplicationQuery(t *testing.T) {
	c, _ := testContext(t, http.MethodGet, "/applications?status=DRAFT,SUBMITTED&queue=true&page=2&pageSize=50&search=mkwawa", nil)

	query := parseApplicationQuery(c)
	assert.Equal(t, []models.ApplicationStatus{models.StatusDraft, models.StatusSubmitted}, query.Statuses)
	assert.True(t, query.Queue)
	assert.Equal(t, 2, query.Page)
	assert.Equal(t, 50, query.PageSize)
	assert.Equal(t, "mkwawa", query.Search)
}
