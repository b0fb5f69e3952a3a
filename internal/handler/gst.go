package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maharish/dinetrack/internal/domain/gst"
)

type gstPayload struct {
	CGST       float64   `json:"cgst"`
	SGST       float64   `json:"sgst"`
	RecordedAt time.Time `json:"timestamp"`
}

type addGSTRequest struct {
	CGST float64 `json:"cgst"`
	SGST float64 `json:"sgst"`
}

func (h *Handler) latestGST(w http.ResponseWriter, r *http.Request) {
	rate, err := h.gst.Latest(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGSTPayload(*rate))
}

func (h *Handler) addGST(w http.ResponseWriter, r *http.Request) {
	var req addGSTRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CGST < 0 || req.SGST < 0 {
		respondError(w, http.StatusBadRequest, "gst rates must not be negative")
		return
	}

	err := h.gst.Add(r.Context(), decimal.NewFromFloat(req.CGST), decimal.NewFromFloat(req.SGST))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "GST rates added successfully"})
}

func (h *Handler) gstHistory(w http.ResponseWriter, r *http.Request) {
	rates, err := h.gst.History(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]gstPayload, len(rates))
	for i, rate := range rates {
		out[i] = toGSTPayload(rate)
	}
	respondJSON(w, http.StatusOK, out)
}

func toGSTPayload(rate gst.Rate) gstPayload {
	return gstPayload{
		CGST:       rate.CGST.InexactFloat64(),
		SGST:       rate.SGST.InexactFloat64(),
		RecordedAt: rate.RecordedAt,
	}
}
