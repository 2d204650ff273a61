package api

import (
	"errors"
	"net/http"
	"strconv"

	"homestay/internal/checkout"
	"homestay/internal/service"
)

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.GetRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req service.StayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	quote, err := s.bookings.Quote(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bookings.Cart())
}

func (s *HTTPServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req service.StayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := s.bookings.AddToCart(r.Context(), req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.bookings.Cart())
}

// handleRemoveItem ignores indexes that do not address an item.
func (s *HTTPServer) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	if _, err := s.bookings.RemoveFromCart(r.Context(), index); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.bookings.Cart())
}

func (s *HTTPServer) handleCheckoutStage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stage": s.flow.Stage()})
}

func (s *HTTPServer) handleCheckoutBegin(w http.ResponseWriter, _ *http.Request) {
	stage, err := s.flow.Begin()
	if err != nil && !errors.Is(err, checkout.ErrCartEmpty) {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": stage})
}

func (s *HTTPServer) handleCheckoutBack(w http.ResponseWriter, _ *http.Request) {
	stage, err := s.flow.Back()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": stage})
}

func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request) {
	var details checkout.PaymentDetails
	if err := decodeJSON(r, &details); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := s.flow.Submit(r.Context(), details)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *HTTPServer) handleReceipts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"receipts": s.flow.Receipts().List()})
}

func (s *HTTPServer) handleReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.flow.Receipts().Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *HTTPServer) handleReceiptExport(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.flow.Receipts().Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	f, err := checkout.ReceiptWorkbook(receipt)
	if err != nil {
		s.logger.Error().Err(err).Str("receipt_id", receipt.ID).Msg("build receipt workbook")
		writeError(w, http.StatusInternalServerError, "failed to export receipt")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+checkout.ReceiptFileName(receipt)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := f.WriteTo(w); err != nil {
		s.logger.Error().Err(err).Str("receipt_id", receipt.ID).Msg("write receipt workbook")
	}
}
