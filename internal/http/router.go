package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAlertRoutes 注册报警 CRUD 路由
func (r *Router) RegisterAlertRoutes(a *AlertHandler) {
	// 集合操作
	r.Handle("/alerts/api/v1/alerts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			a.ListAlerts(w, req)
		case http.MethodPost:
			a.CreateAlert(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// 单条操作：/alerts/{id} 及子资源
	r.Handle("/alerts/api/v1/alerts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/alerts/api/v1/alerts/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		parts := strings.Split(rest, "/")
		alertID := parts[0]

		switch {
		case len(parts) == 1:
			switch req.Method {
			case http.MethodPut:
				a.UpdateAlert(w, req, alertID)
			case http.MethodDelete:
				a.DeleteAlert(w, req, alertID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 2 && parts[1] == "reactivate":
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			a.ReactivateAlert(w, req, alertID)
		case len(parts) == 2 && parts[1] == "status":
			if req.Method != http.MethodPatch {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			a.ToggleAlertStatus(w, req, alertID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterWatchlistRoutes 注册自选股路由
func (r *Router) RegisterWatchlistRoutes(wl *WatchlistHandler) {
	r.Handle("/alerts/api/v1/watchlist", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			wl.ListWatchlist(w, req)
		case http.MethodPost:
			wl.AddSymbol(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/alerts/api/v1/watchlist/", func(w http.ResponseWriter, req *http.Request) {
		symbol := strings.TrimPrefix(req.URL.Path, "/alerts/api/v1/watchlist/")
		if symbol == "" || strings.Contains(symbol, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		wl.RemoveSymbol(w, req, symbol)
	})
}

// RegisterReconcileRoutes 注册手动对账路由
func (r *Router) RegisterReconcileRoutes(rc *ReconcileHandler) {
	r.Handle("/alerts/api/v1/reconcile", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rc.RunNow(w, req)
	})
}
