package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"homestay/internal/cart"
	"homestay/internal/checkout"
	"homestay/internal/config"
	"homestay/internal/domain"
	"homestay/internal/metrics"
	"homestay/internal/service"

	"github.com/rs/zerolog"
)

// ReadinessFunc reports whether the cart backend is reachable.
type ReadinessFunc func(ctx context.Context) error

// HTTPServer exposes the booking widget as a JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	rooms    domain.RoomService
	bookings *service.BookingService
	flow     *checkout.Flow
	ready    ReadinessFunc
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	rooms domain.RoomService,
	bookings *service.BookingService,
	flow *checkout.Flow,
	ready ReadinessFunc,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		rooms:    rooms,
		bookings: bookings,
		flow:     flow,
		ready:    ready,
		logger:   logger,
	}

	mux := http.NewServeMux()
	srv.handle(mux, "GET /healthz", "healthz", srv.handleHealthz)
	srv.handle(mux, "GET /readyz", "readyz", srv.handleReadyz)
	srv.handle(mux, "GET /api/v1/rooms", "rooms", srv.handleRooms)
	srv.handle(mux, "POST /api/v1/quote", "quote", srv.handleQuote)
	srv.handle(mux, "GET /api/v1/cart", "cart", srv.handleCart)
	srv.handle(mux, "POST /api/v1/cart/items", "cart_add", srv.handleAddItem)
	srv.handle(mux, "DELETE /api/v1/cart/items/{index}", "cart_remove", srv.handleRemoveItem)
	srv.handle(mux, "GET /api/v1/checkout", "checkout_stage", srv.handleCheckoutStage)
	srv.handle(mux, "POST /api/v1/checkout", "checkout_begin", srv.handleCheckoutBegin)
	srv.handle(mux, "POST /api/v1/checkout/back", "checkout_back", srv.handleCheckoutBack)
	srv.handle(mux, "POST /api/v1/checkout/payment", "checkout_payment", srv.handlePayment)
	srv.handle(mux, "GET /api/v1/receipts", "receipts", srv.handleReceipts)
	srv.handle(mux, "GET /api/v1/receipts/{id}", "receipt", srv.handleReceipt)
	srv.handle(mux, "GET /api/v1/receipts/{id}/export", "receipt_export", srv.handleReceiptExport)

	handler := loggingMiddleware(logger, newRateLimiter(cfg.RateLimit).Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) handle(mux *http.ServeMux, pattern, endpoint string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(endpoint)
		h(w, r)
	})
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Msg("http request")
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, checkout.ErrReceiptNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, checkout.ErrCheckoutInProgress), errors.Is(err, checkout.ErrNotInPayment),
		errors.Is(err, cart.ErrCartHeld):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
