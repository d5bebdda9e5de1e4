package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageRequest struct {
	PerPage int    `query:"per_page" json:"per_page" default:"20" validate:"gte=1,lte=200"`
	Result  string `json:"result" validate:"omitempty,oneof=WIN LOSS"`
}

func contextFor(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	c, _ := contextFor(http.MethodGet, "/", "")
	req := &pageRequest{}
	assert.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, 20, req.PerPage)
}

func TestReadAndValidateUsesWireNames(t *testing.T) {
	c, _ := contextFor(http.MethodGet, "/?per_page=500", "")
	verr := ReadAndValidateRequest(c, &pageRequest{})

	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_LTE", errs[0].Code)
	assert.Equal(t, "per_page", errs[0].Field)
	assert.Equal(t, "per_page must be at most 200", errs[0].Message)
}

func TestReadAndValidateOneOf(t *testing.T) {
	c, _ := contextFor(http.MethodPost, "/", `{"result":"DRAW"}`)
	errs := ReadAndValidateRequest(c, &pageRequest{}).([]ValidationError)
	require.Len(t, errs, 1)
	assert.Equal(t, "result must be one of WIN, LOSS", errs[0].Message)
	assert.Equal(t, []string{"WIN", "LOSS"}, errs[0].Params["options"])
}

func TestReadAndValidateBindError(t *testing.T) {
	c, _ := contextFor(http.MethodPost, "/", `{"result":`)
	errs := ReadAndValidateRequest(c, &pageRequest{}).([]ValidationError)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponseHidesInternalErrors(t *testing.T) {
	c, rec := contextFor(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusOK, rec.Code)

	var env APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.NotContains(t, rec.Body.String(), "pq:")

	c, rec = contextFor(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, ConflictError("already settled").WithParam("id", 3)))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusConflict, env.Status)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_CONFLICT"`)
}
