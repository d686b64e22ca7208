package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusUnprocessableEntity, "MALFORMED_TOKEN", "token is malformed")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "MALFORMED_TOKEN" {
		t.Errorf("expected code MALFORMED_TOKEN, got %s", resp.Code)
	}
}

func TestDecode(t *testing.T) {
	type body struct {
		Token string `json:"token"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"token":"abc"}`},
		{name: "unknown field", payload: `{"token":"abc","extra":1}`, wantErr: true},
		{name: "not json", payload: `token=abc`, wantErr: true},
		{name: "trailing data", payload: `{"token":"a"}{"token":"b"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var got body
			err := Decode(httptest.NewRecorder(), req, &got)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && (err != nil || got.Token != "abc") {
				t.Errorf("expected token abc, got %q (err=%v)", got.Token, err)
			}
		})
	}
}
