package handler

import (
	"errors"
	"net/http"

	"inventory-envelope/internal/domain"
	"inventory-envelope/internal/middleware"
	"inventory-envelope/internal/usecase"
	"inventory-envelope/pkg/httputil"
)

// ItemHandler は品目のエクスポート・インポートAPIを提供する。
type ItemHandler struct {
	transfer *usecase.TransferService
}

// NewItemHandler は新しいItemHandlerを生成する。
func NewItemHandler(transfer *usecase.TransferService) *ItemHandler {
	return &ItemHandler{transfer: transfer}
}

// ExportItemRequest はエクスポートリクエストの形式。
type ExportItemRequest struct {
	Item domain.ItemRecord `json:"item"`
}

// ImportItemRequest はインポートリクエストの形式。
type ImportItemRequest struct {
	Token string `json:"token"`
}

// ItemResponse は取り込んだ品目のレスポンス形式。
type ItemResponse struct {
	Item *domain.ItemRecord `json:"item"`
}

// Export は品目を暗号化トークンにする。
func (h *ItemHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportItemRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be {\"item\": object}")
		return
	}

	token, err := h.transfer.ExportItem(r.Context(), req.Item)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "EXPORT_ITEM", req.Item.Name, middleware.ResultFailed)
		if errors.Is(err, domain.ErrSharingDisabled) {
			httputil.Error(w, http.StatusForbidden, "SHARING_DISABLED", "sharing is disabled in settings")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "EXPORT_ITEM", req.Item.Name, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Import はトークンから品目を復元する。
func (h *ItemHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportItemRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be {\"token\": string}")
		return
	}

	item, err := h.transfer.ImportItem(r.Context(), req.Token)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "IMPORT_ITEM", "", middleware.ResultFailed)
		writeCipherError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "IMPORT_ITEM", item.Name, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusCreated, ItemResponse{Item: item})
}
