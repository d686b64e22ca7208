package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inventory-envelope/internal/domain"
	"inventory-envelope/internal/middleware"
	"inventory-envelope/internal/usecase"
	"inventory-envelope/pkg/httputil"
)

// SettingsHandler は設定の参照・更新APIを提供する。
type SettingsHandler struct {
	settings *usecase.SettingsService
}

// NewSettingsHandler は新しいSettingsHandlerを生成する。
func NewSettingsHandler(settings *usecase.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// UpdateSettingRequest は設定更新リクエストの形式。値は文字列で受け取る。
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// Get は全設定を返す。復号できない項目は既定値になる。
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.settings.GetSettings(r.Context()))
}

// Update は1項目を更新する。
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	field, err := domain.ParseSettingsField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_FIELD", "unknown settings field")
		return
	}

	var req UpdateSettingRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be {\"value\": string}")
		return
	}

	if err := h.settings.UpdateField(r.Context(), field, req.Value); err != nil {
		middleware.WriteAuditLog(r.Context(), "UPDATE_SETTING", string(field), middleware.ResultFailed)
		if errors.Is(err, domain.ErrParseFailed) {
			httputil.Error(w, http.StatusBadRequest, "INVALID_VALUE", "value does not match the field type")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "UPDATE_SETTING", string(field), middleware.ResultSuccess)
	w.WriteHeader(http.StatusNoContent)
}
