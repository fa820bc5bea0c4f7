package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-ledger/internal/audit"
	"parking-ledger/internal/logging"
	"parking-ledger/internal/parking"
	"parking-ledger/internal/services/attendant"
)

const defaultHistoryLimit = 20

type Handler struct {
	svc         *attendant.Service
	serviceName string
}

func NewHandler(svc *attendant.Service, serviceName string) *Handler {
	return &Handler{svc: svc, serviceName: serviceName}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": h.serviceName,
		"meta":    extractMeta(r.Context()),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Registration) == "" || strings.TrimSpace(req.Class) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration and class are required")
		return
	}

	addr, err := h.svc.Park(ctx, req.Registration, req.Class)
	if err != nil {
		WriteLedgerError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", ParkVehicleResponse{
		Slot:         addr.String(),
		Registration: parking.NormalizeRegistration(req.Registration),
		Class:        addr.Class.String(),
	})
}

func (h *Handler) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RemoveVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Identifier) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Identifier is required")
		return
	}

	removal, err := h.svc.Remove(ctx, req.Identifier)
	if err != nil {
		WriteLedgerError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle removed successfully", RemovalResponse{
		Registration: removal.Registration,
		Slot:         removal.Address.String(),
		Fee:          removal.Fee,
		EnteredAt:    removal.EnteredAt,
		RemovedAt:    removal.RemovedAt,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var response StatusResponse
	for _, st := range h.svc.Status(ctx) {
		response.Capacity += st.Total
		response.Occupied += st.Occupied
		response.Available += st.Available
		response.Classes = append(response.Classes, ClassStatus{
			Class:            st.Class.String(),
			Total:            st.Total,
			Occupied:         st.Occupied,
			Available:        st.Available,
			OccupancyPercent: st.OccupancyPercent(),
		})
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicles := []ParkedVehicle{}
	for _, p := range h.svc.ListWithDue(ctx) {
		vehicles = append(vehicles, ParkedVehicle{
			Slot:         p.Address.String(),
			Registration: p.Registration,
			Class:        p.Address.Class.String(),
			EnteredAt:    p.EnteredAt,
			FeeDue:       p.Due,
		})
	}

	WriteSuccess(ctx, w, "Parked vehicles retrieved successfully", vehicles)
}

func (h *Handler) FindByRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registration := parking.NormalizeRegistration(chi.URLParam(r, "registration"))
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	addr, ok := h.svc.Find(ctx, registration)
	if !ok {
		WriteLedgerError(ctx, w, &parking.Error{
			Reason:  parking.ReasonNotFound,
			Message: "Vehicle " + registration + " not found.",
		})
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", FindVehicleResponse{
		Slot:         addr.String(),
		Registration: registration,
		Class:        addr.Class.String(),
	})
}

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.svc.Save(ctx); err != nil {
		logging.Error(ctx).Err(err).Msg("snapshot save failed")
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	WriteSuccess(ctx, w, "Snapshot saved", nil)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			WriteError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	events, err := h.svc.History(ctx, limit)
	if err != nil {
		logging.Error(ctx).Err(err).Msg("history read failed")
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	WriteSuccess(ctx, w, "History retrieved successfully", events)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slots := []string{}
	for _, addr := range h.svc.Reservations(ctx) {
		slots = append(slots, addr.String())
	}

	WriteSuccess(ctx, w, "Reservations retrieved successfully", slots)
}

func (h *Handler) ToggleReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	addr, reserved, err := h.svc.ToggleReservation(ctx, req.Slot)
	if err != nil {
		WriteLedgerError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Reservation updated", ReservationResponse{
		Slot:     addr.String(),
		Reserved: reserved,
	})
}
