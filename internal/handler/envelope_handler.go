// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"net/http"

	"inventory-envelope/internal/domain"
	"inventory-envelope/internal/middleware"
	"inventory-envelope/internal/usecase"
	"inventory-envelope/pkg/httputil"
)

// EnvelopeHandler は文字列の暗号化・復号APIを提供する。
type EnvelopeHandler struct {
	envelope *usecase.EnvelopeService
}

// NewEnvelopeHandler は新しいEnvelopeHandlerを生成する。
func NewEnvelopeHandler(envelope *usecase.EnvelopeService) *EnvelopeHandler {
	return &EnvelopeHandler{envelope: envelope}
}

// EncryptRequest は暗号化リクエストの形式。
type EncryptRequest struct {
	Plaintext string `json:"plaintext"`
}

// DecryptRequest は復号リクエストの形式。
type DecryptRequest struct {
	Token string `json:"token"`
}

// TokenResponse はトークンのレスポンス形式。
type TokenResponse struct {
	Token string `json:"token"`
}

// PlaintextResponse は復号結果のレスポンス形式。
type PlaintextResponse struct {
	Plaintext string `json:"plaintext"`
}

// Encrypt は平文を暗号化する。
func (h *EnvelopeHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be {\"plaintext\": string}")
		return
	}

	token, err := h.envelope.Encrypt(r.Context(), req.Plaintext)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ENCRYPT", h.envelope.Alias(), middleware.ResultFailed)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "ENCRYPT", h.envelope.Alias(), middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Decrypt はトークンを復号する。
func (h *EnvelopeHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be {\"token\": string}")
		return
	}

	plaintext, err := h.envelope.Decrypt(r.Context(), req.Token)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DECRYPT", h.envelope.Alias(), middleware.ResultFailed)
		writeCipherError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DECRYPT", h.envelope.Alias(), middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, PlaintextResponse{Plaintext: plaintext})
}

// writeCipherError は復号系のエラーをレスポンスに変換する。
func writeCipherError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedToken):
		httputil.Error(w, http.StatusUnprocessableEntity, "MALFORMED_TOKEN", "token is not valid base64 or is too short")
	case errors.Is(err, domain.ErrAuthenticationFailed):
		httputil.Error(w, http.StatusUnprocessableEntity, "AUTHENTICATION_FAILED", "token failed authentication")
	case errors.Is(err, domain.ErrParseFailed):
		httputil.Error(w, http.StatusUnprocessableEntity, "PARSE_FAILED", "decrypted payload could not be parsed")
	default:
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
