package parking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedLedger struct {
	*Ledger
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	removalOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
	feesCollected     metric.Float64Counter
}

func NewInstrumentedLedger(ledger *Ledger, telemetry *TelemetryProvider) (*InstrumentedLedger, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	removalOperations, err := meter.Int64Counter("removal_operations_total",
		metric.WithDescription("Total number of removal operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking ledger operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	feesCollected, err := meter.Float64Counter("parking_fees_total",
		metric.WithDescription("Sum of fees charged on removal"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	il := &InstrumentedLedger{
		Ledger:            ledger,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		removalOperations: removalOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
		feesCollected:     feesCollected,
	}

	ctx := context.Background()
	for _, st := range ledger.Status() {
		classAttr := metric.WithAttributes(attribute.String("vehicle_class", st.Class.String()))
		totalSlotsGauge.Add(ctx, int64(st.Total), classAttr)
		occupancyGauge.Add(ctx, int64(st.Occupied), classAttr)
	}

	return il, nil
}

func (il *InstrumentedLedger) Park(ctx context.Context, registration string, classCode string) (SlotAddress, error) {
	tracer := il.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_ledger.park",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", NormalizeRegistration(registration)),
			attribute.String("vehicle.class", classCode),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_available_slot")

	addr, err := il.Ledger.ParkCode(registration, classCode)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", string(ReasonOf(err))),
		)
		il.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_class", addr.Class.String()),
		)
		span.SetAttributes(attribute.String("allocated_slot", addr.String()))
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_index", addr.Index),
		))

		il.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		il.occupancyGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("vehicle_class", addr.Class.String())))
	}

	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return addr, err
}

func (il *InstrumentedLedger) Remove(ctx context.Context, identifier string) (Removal, error) {
	tracer := il.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_ledger.remove",
		trace.WithAttributes(
			attribute.String("identifier", identifier),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_slot")

	removal, err := il.Ledger.Remove(identifier)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "remove"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", string(ReasonOf(err))),
		)
	} else {
		class := attribute.String("vehicle_class", removal.Address.Class.String())
		labels = append(labels, attribute.String("status", "success"), class)
		span.SetAttributes(
			attribute.String("vehicle.registration_number", removal.Registration),
			attribute.String("released_slot", removal.Address.String()),
			attribute.Float64("fee", removal.Fee),
		)
		span.AddEvent("slot_released")
		il.occupancyGauge.Add(ctx, -1, metric.WithAttributes(class))
		il.feesCollected.Add(ctx, removal.Fee, metric.WithAttributes(class))
	}

	il.removalOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return removal, err
}

func (il *InstrumentedLedger) Find(ctx context.Context, registration string) (SlotAddress, bool) {
	tracer := il.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_ledger.find",
		trace.WithAttributes(
			attribute.String("registration_number", NormalizeRegistration(registration)),
		))
	defer span.End()

	start := time.Now()

	addr, ok := il.Ledger.Find(registration)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "find"),
	}

	if !ok {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.String("slot", addr.String()),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return addr, ok
}

func (il *InstrumentedLedger) Status(ctx context.Context) []ClassStatus {
	tracer := il.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_ledger.status")
	defer span.End()

	start := time.Now()

	status := il.Ledger.Status()

	duration := time.Since(start).Seconds()

	occupied, total := 0, 0
	for _, st := range status {
		occupied += st.Occupied
		total += st.Total
	}
	span.SetAttributes(
		attribute.Int("occupied_slots_count", occupied),
		attribute.Int("total_capacity", total),
	)

	il.operationDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("operation", "status"),
		attribute.String("status", "success"),
	))

	return status
}

func (il *InstrumentedLedger) ListOccupied(ctx context.Context) []ParkedVehicle {
	_, span := il.telemetry.Tracer().Start(ctx, "parking_ledger.list_occupied")
	defer span.End()

	parked := il.Ledger.ListOccupied()
	span.SetAttributes(attribute.Int("parked_count", len(parked)))

	return parked
}

func (il *InstrumentedLedger) Snapshot(ctx context.Context) *Snapshot {
	_, span := il.telemetry.Tracer().Start(ctx, "parking_ledger.snapshot")
	defer span.End()

	return il.Ledger.Snapshot()
}
