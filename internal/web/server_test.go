package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const testSecret = "test-secret"

type stubExecutor struct {
	Result *domain.RebalanceResult
	Err    error
	Req    domain.RebalanceRequest
	Calls  int
}

func (s *stubExecutor) Execute(ctx context.Context, req domain.RebalanceRequest) (*domain.RebalanceResult, error) {
	s.Calls++
	s.Req = req
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doExecuteOrder(t *testing.T, executor *stubExecutor, auth string, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(0, executor, testSecret, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/executeOrder", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func validBody() string {
	return `{"account":"fund-a","order":[{"symbol":"BTC","quantity":0.5,"leverage":2}]}`
}

func TestHealth(t *testing.T) {
	srv := NewServer(0, &stubExecutor{}, testSecret, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestExecuteOrder_Success(t *testing.T) {
	executor := &stubExecutor{
		Result: &domain.RebalanceResult{Status: "ok", Account: "fund-a", Attempt: 1},
	}
	auth := "Bearer " + signedToken(t, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec := doExecuteOrder(t, executor, auth, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, executor.Calls)
	assert.Equal(t, "fund-a", executor.Req.Account)
	require.Len(t, executor.Req.Order, 1)
	assert.Equal(t, "BTC", executor.Req.Order[0].Symbol)

	var resp domain.RebalanceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Attempt)
}

func TestExecuteOrder_MissingAuthHeader(t *testing.T) {
	executor := &stubExecutor{}

	rec := doExecuteOrder(t, executor, "", validBody())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, executor.Calls)
}

func TestExecuteOrder_NotBearer(t *testing.T) {
	rec := doExecuteOrder(t, &stubExecutor{}, "Basic dXNlcjpwYXNz", validBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExecuteOrder_BadSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).
		SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	executor := &stubExecutor{}
	rec := doExecuteOrder(t, executor, "Bearer "+token, validBody())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, executor.Calls)
}

func TestExecuteOrder_ExpiredToken(t *testing.T) {
	auth := "Bearer " + signedToken(t, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	rec := doExecuteOrder(t, &stubExecutor{}, auth, validBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExecuteOrder_MissingSubjectClaim(t *testing.T) {
	auth := "Bearer " + signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	executor := &stubExecutor{}
	rec := doExecuteOrder(t, executor, auth, validBody())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, executor.Calls)
}

func TestExecuteOrder_InvalidBody(t *testing.T) {
	auth := "Bearer " + signedToken(t, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	executor := &stubExecutor{}
	rec := doExecuteOrder(t, executor, auth, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, executor.Calls)
}

func TestExecuteOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Reason: "sum of target fractions exceeds 100%"}, http.StatusBadRequest},
		{"market not found", &domain.MarketNotFoundError{Symbol: "DOGE", Known: []string{"BTC"}}, http.StatusBadRequest},
		{"planning", &domain.PlanningError{Reason: "no margin balance"}, http.StatusBadRequest},
		{"upstream", &domain.UpstreamFetchError{Resource: "account", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"batch", &domain.BatchExecutionError{Symbols: []string{"BTC"}}, http.StatusBadGateway},
		{"submission", &domain.OrderSubmissionError{Symbol: "BTC", Err: errors.New("nonce")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	auth := "Bearer " + signedToken(t, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doExecuteOrder(t, &stubExecutor{Err: tc.err}, auth, validBody())

			assert.Equal(t, tc.want, rec.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp["status"])
			assert.Equal(t, "fund-a", resp["account"])
			assert.NotEmpty(t, resp["result"])
		})
	}
}
