package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/services/attendant"
)

const defaultHistory = 20

// numbered menu entries accepted in place of command names
var aliases = map[string]string{
	"1": "park",
	"2": "remove",
	"3": "status",
	"4": "list",
	"5": "exit",
	"6": "quit",
}

type Shell struct {
	svc     *attendant.Service
	scanner *bufio.Scanner
	out     io.Writer
	tracer  trace.Tracer
	done    bool
}

func NewShell(svc *attendant.Service, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		svc:     svc,
		scanner: bufio.NewScanner(in),
		out:     out,
		tracer:  tracenoop.NewTracerProvider().Tracer(""),
	}
}

// NewInstrumentedShell opens a span for every command it runs.
func NewInstrumentedShell(svc *attendant.Service, in io.Reader, out io.Writer, telemetry *parking.TelemetryProvider) *Shell {
	s := NewShell(svc, in, out)
	s.tracer = telemetry.Tracer()
	return s
}

// Run reads commands until input ends, an exit command is given or ctx is
// cancelled.
func (s *Shell) Run(ctx context.Context) error {
	for !s.done {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.scanner.Scan() {
			return s.scanner.Err()
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		s.processCommand(ctx, input)
	}
	return nil
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	if alias, ok := aliases[command]; ok {
		command = alias
	}

	ctx, span := s.tracer.Start(ctx, "shell."+command,
		trace.WithAttributes(attribute.Int("args", len(parts)-1)))
	defer span.End()

	switch command {
	case "park":
		s.handlePark(ctx, span, parts)
	case "remove":
		s.handleRemove(ctx, span, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "list":
		s.handleList(ctx)
	case "history":
		s.handleHistory(ctx, span, parts)
	case "reserve":
		s.handleReserve(ctx, span, parts)
	case "reserved":
		s.handleReserved(ctx)
	case "save":
		s.handleSave(ctx, span)
	case "exit":
		if s.handleSave(ctx, span) {
			s.done = true
		}
	case "quit":
		s.println("Exiting without saving.")
		s.done = true
	case "help":
		s.handleHelp()
	default:
		span.SetStatus(codes.Error, "unknown command")
		s.printf("Unknown command: %s\n", parts[0])
	}
}

func (s *Shell) handlePark(ctx context.Context, span trace.Span, parts []string) {
	if len(parts) < 3 {
		s.println("Usage: park <registration> <2W|4W|TR>")
		return
	}

	// the class is always the last token; a registration may contain spaces
	registration := strings.Join(parts[1:len(parts)-1], " ")
	addr, err := s.svc.Park(ctx, registration, parts[len(parts)-1])
	if err != nil {
		s.fail(span, err)
		return
	}

	s.printf("Parked %s at %s.\n", parking.NormalizeRegistration(registration), addr)
}

func (s *Shell) handleRemove(ctx context.Context, span trace.Span, parts []string) {
	if len(parts) < 2 {
		s.println("Usage: remove <registration|slot>")
		return
	}

	removal, err := s.svc.Remove(ctx, strings.Join(parts[1:], " "))
	if err != nil {
		s.fail(span, err)
		return
	}

	s.printf("Removed vehicle %s from %s. Fee: %.2f\n", removal.Registration, removal.Address, removal.Fee)
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	if len(parts) < 2 {
		s.println("Usage: find <registration>")
		return
	}

	registration := parking.NormalizeRegistration(strings.Join(parts[1:], " "))
	addr, ok := s.svc.Find(ctx, registration)
	if !ok {
		s.printf("Vehicle %s not found.\n", registration)
		return
	}

	s.printf("%s is parked at %s.\n", registration, addr)
}

func (s *Shell) handleStatus(ctx context.Context) {
	for _, st := range s.svc.Status(ctx) {
		s.printf("%s: total=%d, occupied=%d, available=%d (%.1f%%)\n",
			st.Class, st.Total, st.Occupied, st.Available, st.OccupancyPercent())
	}
}

func (s *Shell) handleList(ctx context.Context) {
	parked := s.svc.ListWithDue(ctx)
	if len(parked) == 0 {
		s.println("Parking lot is empty")
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Slot\tRegistration\tEntered\tDue")
	for _, p := range parked {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", p.Address, p.Registration, p.EnteredAt.Format(time.RFC3339), p.Due)
	}
	tw.Flush()
}

func (s *Shell) handleHistory(ctx context.Context, span trace.Span, parts []string) {
	n := defaultHistory
	if len(parts) > 1 {
		v, err := strconv.Atoi(parts[1])
		if err != nil || v <= 0 {
			s.println("Usage: history [count]")
			return
		}
		n = v
	}

	events, err := s.svc.History(ctx, n)
	if err != nil {
		s.fail(span, err)
		return
	}
	if len(events) == 0 {
		s.println("No history yet")
		return
	}

	for _, ev := range events {
		line := fmt.Sprintf("%s  %-6s  %-12s  %s", ev.Time.Format(time.RFC3339), ev.Kind, ev.Vehicle, ev.Slot)
		if ev.Fee != nil {
			line += fmt.Sprintf("  %.2f", *ev.Fee)
		}
		s.println(line)
	}
}

func (s *Shell) handleReserve(ctx context.Context, span trace.Span, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: reserve <slot>")
		return
	}

	addr, reserved, err := s.svc.ToggleReservation(ctx, parts[1])
	if err != nil {
		s.fail(span, err)
		return
	}

	if reserved {
		s.printf("Slot %s marked reserved.\n", addr)
	} else {
		s.printf("Slot %s reservation cleared.\n", addr)
	}
}

func (s *Shell) handleReserved(ctx context.Context) {
	reserved := s.svc.Reservations(ctx)
	if len(reserved) == 0 {
		s.println("No reserved slots")
		return
	}

	labels := make([]string, len(reserved))
	for i, addr := range reserved {
		labels[i] = addr.String()
	}
	s.println(strings.Join(labels, " "))
}

func (s *Shell) handleSave(ctx context.Context, span trace.Span) bool {
	if err := s.svc.Save(ctx); err != nil {
		s.fail(span, err)
		s.println("Save failed; use quit to exit without saving.")
		return false
	}
	s.println("Saved successfully.")
	return true
}

func (s *Shell) handleHelp() {
	s.println(`Commands:
  park <registration> <2W|4W|TR>   (1)
  remove <registration|slot>       (2)
  status                           (3)
  list                             (4)
  find <registration>
  history [count]
  reserve <slot>
  reserved
  save
  exit   save and exit             (5)
  quit   exit without saving       (6)`)
}

func (s *Shell) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.printf("Error: %s\n", err.Error())
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
