package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

// fakeService returns scripted results and records whether MX was requested.
type fakeService struct {
	lastCheckMX bool
	suggestion  string
}

func (f *fakeService) ValidateWithDetails(_ context.Context, email string, checkMX bool) domain.ValidationResult {
	f.lastCheckMX = checkMX
	dom, _ := domain.ExtractDomain(email)
	valid := domain.IsValidFormat(email)
	res := domain.ValidationResult{Email: email, Valid: valid, FormatValid: valid, Domain: dom}
	if !valid {
		res.Errors = []string{domain.ReasonInvalidFormat}
	}
	return res
}

func (f *fakeService) ValidateMany(ctx context.Context, emails []string, checkMX bool) map[string]domain.ValidationResult {
	out := make(map[string]domain.ValidationResult, len(emails))
	for _, e := range emails {
		out[e] = f.ValidateWithDetails(ctx, e, checkMX)
	}
	return out
}

func (f *fakeService) Statistics(_ context.Context, emails []string, _ bool) domain.Stats {
	return domain.Stats{Total: len(emails)}
}

func (f *fakeService) SuggestDomain(string) (string, bool) {
	return f.suggestion, f.suggestion != ""
}

func newTestServer(svc ValidationService) *Server {
	return NewServer(":0", svc, log.NewNoopLogger())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeService{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestValidateOne(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/validate/user@example.com?mx=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res singleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, "example.com", res.Domain)
	assert.True(t, svc.lastCheckMX)
	assert.Empty(t, res.Suggestion)
}

func TestValidateOne_SuggestionOnInvalid(t *testing.T) {
	svc := &fakeService{suggestion: "gmail.com"}
	s := newTestServer(svc)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/validate/user@@gmial.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res singleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, "gmail.com", res.Suggestion)
	assert.False(t, svc.lastCheckMX)
}

func TestValidateBatch(t *testing.T) {
	s := newTestServer(&fakeService{})

	body, _ := json.Marshal(batchRequest{Emails: []string{"a@example.com", "bad"}, CheckMX: false})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results["a@example.com"].Valid)
	assert.False(t, resp.Results["bad"].Valid)
	assert.Equal(t, 2, resp.Stats.Total)
}

func TestValidateBatch_BadRequests(t *testing.T) {
	s := newTestServer(&fakeService{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader([]byte(`{"emails":[]}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(&fakeService{})

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start must fail")
	assert.Equal(t, ":0", s.Address())
	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop(), "second stop is a no-op")
}
