package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"inkomba-alerts/internal/service"

	"go.uber.org/zap"
)

// WatchlistHandler 自选股 HTTP 处理器
type WatchlistHandler struct {
	watchlistService *service.WatchlistService
	logger           *zap.Logger
}

// NewWatchlistHandler 创建自选股处理器
func NewWatchlistHandler(watchlistService *service.WatchlistService, logger *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistService: watchlistService,
		logger:           logger,
	}
}

// ListWatchlist GET /alerts/api/v1/watchlist
func (h *WatchlistHandler) ListWatchlist(w http.ResponseWriter, req *http.Request) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	items, err := h.watchlistService.ListWatchlist(req.Context(), uid)
	if err != nil {
		h.logger.Error("Failed to list watchlist", zap.String("user_id", uid), zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	type itemJSON struct {
		Symbol  string `json:"symbol"`
		Company string `json:"company"`
	}
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON{Symbol: it.Symbol, Company: it.Company})
	}
	writeOk(w, out)
}

// AddSymbol POST /alerts/api/v1/watchlist
func (h *WatchlistHandler) AddSymbol(w http.ResponseWriter, req *http.Request) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	var body struct {
		Symbol  string `json:"symbol"`
		Company string `json:"company"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	itemID, err := h.watchlistService.AddSymbol(req.Context(), uid, body.Symbol, body.Company)
	if err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	writeOk(w, map[string]string{"id": itemID})
}

// RemoveSymbol DELETE /alerts/api/v1/watchlist/{symbol}
func (h *WatchlistHandler) RemoveSymbol(w http.ResponseWriter, req *http.Request, symbol string) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	if err := h.watchlistService.RemoveSymbol(req.Context(), uid, symbol); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeOk(w, map[string]bool{"ok": true})
}
