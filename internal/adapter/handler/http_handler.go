package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/core/async"
	"github.com/rl1809/shopy/internal/core/service"
)

// Services groups the core services the transport handlers dispatch to.
type Services struct {
	Accounts    *service.AccountService
	Sessions    *service.SessionManager
	OTP         *service.OTPService
	Orders      *service.OrderService
	Catalog     *service.CatalogService
	Directory   *service.Directory
	Preferences *service.PreferenceService
}

type HTTPHandler struct {
	svc    Services
	logger *zap.Logger
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewHTTPHandler(svc Services, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

// Routes returns the router serving the JSON API under /api and the health check.
func (h *HTTPHandler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/otp", h.SendOTP).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/nav", h.Navigation).Methods(http.MethodGet)
	api.HandleFunc("/shops", h.ListShops).Methods(http.MethodGet)
	api.HandleFunc("/shops/{id}", h.GetShop).Methods(http.MethodGet)
	api.HandleFunc("/shops/{id}/products", h.SearchProducts).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(h.requireSession)
	authed.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	authed.HandleFunc("/me", h.UpdateProfile).Methods(http.MethodPatch)
	authed.HandleFunc("/preferences", h.GetPreferences).Methods(http.MethodGet)
	authed.HandleFunc("/preferences", h.SavePreferences).Methods(http.MethodPut)
	authed.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	authed.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)
	authed.HandleFunc("/cart/lines", h.AddCartLine).Methods(http.MethodPost)
	authed.HandleFunc("/cart/lines/{productId}", h.RemoveCartLine).Methods(http.MethodDelete)
	authed.HandleFunc("/orders", h.PlaceOrder).Methods(http.MethodPost)
	authed.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	authed.HandleFunc("/transactions", h.Transactions).Methods(http.MethodGet)
	authed.HandleFunc("/vendor/products", h.ListVendorProducts).Methods(http.MethodGet)
	authed.HandleFunc("/vendor/products", h.AddVendorProduct).Methods(http.MethodPost)
	authed.HandleFunc("/vendor/products/{id}", h.UpdateVendorProduct).Methods(http.MethodPut)
	authed.HandleFunc("/vendor/products/{id}", h.DeleteVendorProduct).Methods(http.MethodDelete)
	authed.HandleFunc("/vendor/stats", h.VendorStats).Methods(http.MethodGet)

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (h *HTTPHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.svc.Sessions.Get(r.Context(), bearerToken(r))
		if err != nil {
			h.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(service.WithSession(r.Context(), sess)))
	})
}

// session is only valid behind requireSession.
func session(r *http.Request) *service.Session {
	sess, _ := service.SessionFrom(r.Context())
	return sess
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "invalid request body",
		})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, Response{Success: false, Message: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrDuplicateAccount):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrOTPNotSent),
		errors.Is(err, service.ErrInvalidOTP):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotVendor):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, async.ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	case service.IsUserError(err):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
