// Package handler exposes the HTTP/JSON API surface.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/maharish/dinetrack/internal/domain/gst"
	"github.com/maharish/dinetrack/internal/domain/member"
	"github.com/maharish/dinetrack/internal/domain/menu"
	"github.com/maharish/dinetrack/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageDir is the directory uploaded dish images are written to.
	ImageDir string
	// ImageBaseURL is prepended to image paths in responses. When empty,
	// image paths are returned as stored.
	ImageBaseURL string
}

// Handler routes API requests to the order lifecycle service and the catalog
// repositories.
type Handler struct {
	orders       *order.Service
	menu         menu.Repository
	gst          gst.Repository
	members      member.Repository
	imageDir     string
	imageBaseURL string
}

// New constructs a Handler with the required dependencies.
func New(
	cfg Config,
	orders *order.Service,
	menuRepo menu.Repository,
	gstRepo gst.Repository,
	members member.Repository,
) *Handler {
	return &Handler{
		orders:       orders,
		menu:         menuRepo,
		gst:          gstRepo,
		members:      members,
		imageDir:     cfg.ImageDir,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers every API route on the given mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders/{orderId}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{orderId}", h.updateOrder)
	mux.HandleFunc("POST /api/orders/close/{orderId}", h.closeOrder)
	mux.HandleFunc("GET /api/orders/history/{orderId}", h.orderHistory)
	mux.HandleFunc("POST /api/orders/payment/{orderId}", h.recordPayment)
	mux.HandleFunc("POST /api/orders/reset-updates", h.resetUpdates)

	mux.HandleFunc("GET /api/menu-items", h.listMenuItems)
	mux.HandleFunc("GET /api/menu-items/status", h.listMenuItemsWithStatus)
	mux.HandleFunc("POST /api/menu-items", h.addMenuItem)
	mux.HandleFunc("POST /api/menu-items/update", h.updateMenuItems)
	mux.HandleFunc("DELETE /api/menu-items/{name}", h.deleteMenuItem)
	mux.HandleFunc("POST /api/menu-items/specials", h.toggleSpecial)
	mux.HandleFunc("POST /api/menu-items/popular", h.togglePopular)
	mux.HandleFunc("GET /api/dishes/{name}", h.getDish)

	mux.HandleFunc("GET /api/gst", h.latestGST)
	mux.HandleFunc("POST /api/gst", h.addGST)
	mux.HandleFunc("GET /api/gst/history", h.gstHistory)

	mux.HandleFunc("GET /api/members/check", h.checkMember)
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// messageResponse is the envelope for operations that only report an outcome.
type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status is already written; a failure here means the
	// client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as an opaque 500 so internals never leak to callers.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr *order.InvalidQuantityError
		npErr *order.NegativePriceError
	)
	switch {
	case errors.Is(err, order.ErrEmptyOrderID),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.As(err, &iqErr),
		errors.As(err, &npErr):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrHistoryNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, menu.ErrDishNotFound),
		errors.Is(err, member.ErrNotFound),
		errors.Is(err, gst.ErrNoRates):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrDuplicate), errors.Is(err, menu.ErrDuplicate):
		respondError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON parses the request body into dst, rejecting unknown garbage with
// a caller-readable error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}
