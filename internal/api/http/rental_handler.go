package http

import (
	"net/http"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/service"
	"clan-rental-backend/internal/utils"
)

type RentalHandler struct {
	rentalSvc service.RentalService
	now       func() time.Time
}

func NewRentalHandler(rentalSvc service.RentalService) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc, now: time.Now}
}

type rentalLineRequest struct {
	ItemID   int32 `json:"item_id"`
	Quantity int32 `json:"quantity"`
}

type createRentalRequest struct {
	Items             []rentalLineRequest     `json:"items"`
	PaymentMethod     domain.PaymentMethod    `json:"payment_method"`
	RentalDays        int32                   `json:"rental_days"`
	DeliveryLocation  domain.DeliveryLocation `json:"delivery_location"`
	TermsAccepted     bool                    `json:"terms_accepted"`
	TermsText         string                  `json:"terms_text"`
	CollateralItemIDs []int32                 `json:"collateral_item_ids"`
}

// rentalResponse adds the derived remaining time to active rentals.
type rentalResponse struct {
	*domain.Rental
	RemainingTime *utils.RemainingTime `json:"remaining_time,omitempty"`
}

func (h *RentalHandler) toResponse(r *domain.Rental) rentalResponse {
	resp := rentalResponse{Rental: r}
	if r.Status == domain.RentalStatusActive {
		rt := utils.CalculateRemainingTime(r, h.now())
		resp.RemainingTime = &rt
	}
	return resp
}

func (h *RentalHandler) toList(rentals []domain.Rental) []rentalResponse {
	out := make([]rentalResponse, 0, len(rentals))
	for i := range rentals {
		out = append(out, h.toResponse(&rentals[i]))
	}
	return out
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	lines := make([]service.RentalLine, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, service.RentalLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	rental, err := h.rentalSvc.CreateRental(r.Context(), userID(r.Context()), service.CreateRentalRequest{
		Lines:             lines,
		PaymentMethod:     req.PaymentMethod,
		RentalDays:        req.RentalDays,
		DeliveryLocation:  req.DeliveryLocation,
		TermsAccepted:     req.TermsAccepted,
		TermsText:         req.TermsText,
		CollateralItemIDs: req.CollateralItemIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(rental))
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.rentalSvc.GetRental(r.Context(), userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(rental))
}

func (h *RentalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.rentalSvc.ListMyRentals(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": h.toList(rentals)})
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.RentalStatus(r.URL.Query().Get("status"))
	rentals, err := h.rentalSvc.ListRentals(r.Context(), userID(r.Context()), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": h.toList(rentals)})
}

func (h *RentalHandler) transition(w http.ResponseWriter, r *http.Request, fn func(r *http.Request, actorID string, id int32) (*domain.Rental, error)) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := fn(r, userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(rental))
}

func (h *RentalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actorID string, id int32) (*domain.Rental, error) {
		return h.rentalSvc.ApproveRental(r.Context(), actorID, id)
	})
}

func (h *RentalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actorID string, id int32) (*domain.Rental, error) {
		return h.rentalSvc.CompleteRental(r.Context(), actorID, id)
	})
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actorID string, id int32) (*domain.Rental, error) {
		return h.rentalSvc.CancelRental(r.Context(), actorID, id)
	})
}

func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.rentalSvc.DeleteRental(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) Terms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"terms_text": h.rentalSvc.TermsText()})
}
