package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-ledger/internal/services/attendant"
)

var (
	slotsTotalDesc = prometheus.NewDesc(
		"parking_ledger_slots_total",
		"Configured slots per vehicle class.",
		[]string{"class"}, nil,
	)
	slotsOccupiedDesc = prometheus.NewDesc(
		"parking_ledger_slots_occupied",
		"Occupied slots per vehicle class.",
		[]string{"class"}, nil,
	)
)

// ledgerCollector reads occupancy at scrape time.
type ledgerCollector struct {
	svc *attendant.Service
}

func (c ledgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- slotsTotalDesc
	ch <- slotsOccupiedDesc
}

func (c ledgerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.svc.Status(context.Background()) {
		ch <- prometheus.MustNewConstMetric(slotsTotalDesc, prometheus.GaugeValue, float64(st.Total), st.Class.String())
		ch <- prometheus.MustNewConstMetric(slotsOccupiedDesc, prometheus.GaugeValue, float64(st.Occupied), st.Class.String())
	}
}

func newRegistry(svc *attendant.Service) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ledgerCollector{svc: svc},
	)
	return reg
}
