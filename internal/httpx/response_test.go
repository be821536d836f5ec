package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/praevia/atmp/internal/apperr"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest},
		{apperr.Forbidden("nope"), http.StatusForbidden},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("already done"), http.StatusConflict},
		{apperr.Storage("disk", errors.New("io")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apperr.Conflict("inner")), http.StatusConflict},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		Error(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("Error(%v) = %d, want %d", c.err, rec.Code, c.want)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
	}
}

func TestErrorNeverLeaksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: connection refused to 10.0.0.5"))
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal_error" {
		t.Fatalf("internal details leaked: %q", body.Error)
	}
}

func TestErrorCarriesValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperr.ValidationFields("validation failed", map[string]string{"title": "required"}))
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	details, ok := body.Details.(map[string]any)
	if !ok || details["title"] != "required" {
		t.Fatalf("expected field details, got %v", body.Details)
	}
}
