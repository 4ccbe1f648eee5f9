package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"aurenlm-backend/internal/llm"
	"aurenlm-backend/internal/models"
	"aurenlm-backend/internal/services"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("Expected message 'ok', got %q", body["message"])
	}
}

func TestErrorResp_EchoesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")

	resp := errorResp("NOT_FOUND", "Document not found", req)
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code NOT_FOUND, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-abc-123" {
		t.Errorf("Expected request ID to be echoed, got %q", resp.Error.RequestID)
	}
}

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Email already registered"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Quiz not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "You do not own this document"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "Too many requests"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{
		Fields: map[string]string{"password": "Password must be at least 8 characters"},
	})

	resp := decodeError(t, rr)
	if resp.Error.Fields["password"] == "" {
		t.Error("Expected field errors to be included in the response")
	}
}

func TestHandleServiceError_LLMKinds(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		wantCode string
	}{
		{"timeout", llm.KindTimeout, "LLM_TIMEOUT"},
		{"unavailable", llm.KindUnavailable, "LLM_UNAVAILABLE"},
		{"bad status", llm.KindBadStatus, "LLM_BAD_REPLY"},
		{"bad payload", llm.KindBadPayload, "DECODE_FAILED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, &llm.Error{Kind: tc.kind, Message: "backend failed"})

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("Expected status 500, got %d", rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestHandleServiceError_WrappedLLMError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-quiz", nil)
	rr := httptest.NewRecorder()

	wrapped := fmt.Errorf("generate quiz: %w", &llm.Error{Kind: llm.KindTimeout, Message: "deadline"})
	handleServiceError(rr, req, wrapped)

	resp := decodeError(t, rr)
	if resp.Error.Code != "LLM_TIMEOUT" {
		t.Errorf("Expected wrapped llm error to map to LLM_TIMEOUT, got %q", resp.Error.Code)
	}
}
