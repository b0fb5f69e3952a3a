package handler

import "net/http"

type memberPayload struct {
	Phone  string `json:"phno"`
	Screen int    `json:"screen"`
}

func (h *Handler) checkMember(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phno")
	if phone == "" {
		respondError(w, http.StatusBadRequest, "phno query parameter is required")
		return
	}

	m, err := h.members.FindByPhone(r.Context(), phone)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, memberPayload{Phone: m.Phone, Screen: m.Screen})
}
