package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-ledger/internal/logging"
	"parking-ledger/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkVehicleRequest struct {
	Registration string `json:"registration"`
	Class        string `json:"class"`
}

type RemoveVehicleRequest struct {
	Identifier string `json:"identifier"`
}

type ReservationRequest struct {
	Slot string `json:"slot"`
}

type ParkVehicleResponse struct {
	Slot         string `json:"slot"`
	Registration string `json:"registration"`
	Class        string `json:"class"`
}

type RemovalResponse struct {
	Registration string    `json:"registration"`
	Slot         string    `json:"slot"`
	Fee          float64   `json:"fee"`
	EnteredAt    time.Time `json:"entered_at"`
	RemovedAt    time.Time `json:"removed_at"`
}

type FindVehicleResponse struct {
	Slot         string `json:"slot"`
	Registration string `json:"registration"`
	Class        string `json:"class"`
}

type ClassStatus struct {
	Class            string  `json:"class"`
	Total            int     `json:"total"`
	Occupied         int     `json:"occupied"`
	Available        int     `json:"available"`
	OccupancyPercent float64 `json:"occupancy_percent"`
}

type StatusResponse struct {
	Capacity  int           `json:"capacity"`
	Occupied  int           `json:"occupied"`
	Available int           `json:"available"`
	Classes   []ClassStatus `json:"classes"`
}

type ParkedVehicle struct {
	Slot         string    `json:"slot"`
	Registration string    `json:"registration"`
	Class        string    `json:"class"`
	EnteredAt    time.Time `json:"entered_at"`
	FeeDue       float64   `json:"fee_due"`
}

type ReservationResponse struct {
	Slot     string `json:"slot"`
	Reserved bool   `json:"reserved"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

// WriteLedgerError maps a ledger rejection onto an HTTP status. Anything that
// is not a ledger error is reported as a 500 without its details.
func WriteLedgerError(ctx context.Context, w http.ResponseWriter, err error) {
	var le *parking.Error
	if !errors.As(err, &le) {
		logging.Error(ctx).Err(err).Msg("request failed")
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, statusForReason(le.Reason), Response{
		Success: false,
		Error:   le.Error(),
		Reason:  string(le.Reason),
		Meta:    extractMeta(ctx),
	})
}

func statusForReason(reason parking.Reason) int {
	switch reason {
	case parking.ReasonInvalidClass, parking.ReasonInvalidSlot:
		return http.StatusBadRequest
	case parking.ReasonNotFound:
		return http.StatusNotFound
	case parking.ReasonAlreadyParked, parking.ReasonLotFull, parking.ReasonAlreadyEmpty:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
