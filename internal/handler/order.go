package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maharish/dinetrack/internal/domain/order"
)

// linePayload is the wire shape of a line item. total_price in requests is
// ignored; the pricing engine recomputes it.
type linePayload struct {
	MenuItem        string  `json:"menuItem"`
	Quantity        int     `json:"quantity"`
	IndividualPrice float64 `json:"individual_price"`
	TotalPrice      float64 `json:"total_price"`
}

type createOrderRequest struct {
	OrderID     string        `json:"orderId"`
	TableNumber string        `json:"tableNumber"`
	MemberID    string        `json:"memberId"`
	Items       []linePayload `json:"items"`
}

type updateOrderRequest struct {
	TableNumber *string        `json:"tableNumber"`
	Remarks     *string        `json:"remarks"`
	Items       *[]linePayload `json:"items"`
}

type orderResponse struct {
	OrderID     string        `json:"orderId"`
	CreatedAt   time.Time     `json:"createdAt"`
	TableNumber string        `json:"tableNumber"`
	MemberID    string        `json:"memberId"`
	Items       []linePayload `json:"items"`
	IsClosed    bool          `json:"isClosed"`
	IsUpdated   bool          `json:"isUpdated"`
	Remarks     string        `json:"remarks,omitempty"`
	FinalPrice  *float64      `json:"finalPrice,omitempty"`
}

type historyResponse struct {
	OrderID     string        `json:"orderId"`
	CreatedAt   time.Time     `json:"createdAt"`
	TableNumber string        `json:"tableNumber"`
	MemberID    string        `json:"memberId"`
	Items       []linePayload `json:"items"`
	FinalPrice  float64       `json:"finalPrice"`
}

type closeOrderResponse struct {
	Message string          `json:"message"`
	History historyResponse `json:"history"`
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type paymentResponse struct {
	Message       string    `json:"message"`
	OrderID       string    `json:"orderId"`
	MemberID      string    `json:"memberId"`
	FinalPrice    float64   `json:"finalPrice"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentTime   time.Time `json:"paymentTime"`
}

type resetUpdatesRequest struct {
	OrderIDs []string `json:"orderIds"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		OrderID:     req.OrderID,
		TableNumber: req.TableNumber,
		MemberID:    req.MemberID,
		Items:       toLineInputs(req.Items),
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := order.UpdateRequest{
		TableNumber: req.TableNumber,
		Remarks:     req.Remarks,
	}
	if req.Items != nil {
		upd.Items = toLineInputs(*req.Items)
		if upd.Items == nil {
			upd.Items = []order.LineInput{}
		}
	}

	o, err := h.orders.Update(r.Context(), r.PathValue("orderId"), upd)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) closeOrder(w http.ResponseWriter, r *http.Request) {
	rec, err := h.orders.Close(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, closeOrderResponse{
		Message: "Order closed and moved to history",
		History: toHistoryResponse(rec),
	})
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.orders.History(r.Context(), r.PathValue("orderId"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toHistoryResponse(rec))
}

// paymentMessages communicates the expected settlement action per method.
var paymentMessages = map[order.PaymentMethod]string{
	order.PaymentCash:   "Please pay the final amount in cash.",
	order.PaymentOnline: "Payment link has been sent to your email.",
	order.PaymentCredit: "The final amount has been added to your credit limit.",
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	payment, err := h.orders.RecordPayment(r.Context(), r.PathValue("orderId"), method)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, paymentResponse{
		Message:       paymentMessages[method],
		OrderID:       payment.OrderID,
		MemberID:      payment.MemberID,
		FinalPrice:    payment.FinalPrice.InexactFloat64(),
		PaymentMethod: string(payment.PaymentMethod),
		PaymentTime:   payment.PaymentTime,
	})
}

func (h *Handler) resetUpdates(w http.ResponseWriter, r *http.Request) {
	var req resetUpdatesRequest
	if err := decodeJSON(r, &req); err != nil || req.OrderIDs == nil {
		respondError(w, http.StatusBadRequest, "invalid order IDs format")
		return
	}

	if err := h.orders.ResetUpdateFlags(r.Context(), req.OrderIDs); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Updates reset successfully"})
}

func toLineInputs(items []linePayload) []order.LineInput {
	if items == nil {
		return nil
	}
	out := make([]order.LineInput, len(items))
	for i, item := range items {
		out[i] = order.LineInput{
			MenuItem:        item.MenuItem,
			Quantity:        item.Quantity,
			IndividualPrice: decimal.NewFromFloat(item.IndividualPrice),
		}
	}
	return out
}

func toLinePayloads(lines []order.Line) []linePayload {
	out := make([]linePayload, len(lines))
	for i, l := range lines {
		out[i] = linePayload{
			MenuItem:        l.MenuItem,
			Quantity:        l.Quantity,
			IndividualPrice: l.IndividualPrice.InexactFloat64(),
			TotalPrice:      l.TotalPrice.InexactFloat64(),
		}
	}
	return out
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		OrderID:     o.ID,
		CreatedAt:   o.CreatedAt,
		TableNumber: o.TableNumber,
		MemberID:    o.MemberID,
		Items:       toLinePayloads(o.Lines),
		IsClosed:    o.IsClosed,
		IsUpdated:   o.IsUpdated,
		Remarks:     o.Remarks,
	}
	if o.FinalPrice != nil {
		fp := o.FinalPrice.InexactFloat64()
		resp.FinalPrice = &fp
	}
	return resp
}

func toHistoryResponse(rec *order.HistoryRecord) historyResponse {
	return historyResponse{
		OrderID:     rec.OrderID,
		CreatedAt:   rec.CreatedAt,
		TableNumber: rec.TableNumber,
		MemberID:    rec.MemberID,
		Items:       toLinePayloads(rec.Lines),
		FinalPrice:  rec.FinalPrice.InexactFloat64(),
	}
}
