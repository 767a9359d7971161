package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckIns counts clock-in attempts by outcome code.
var CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "absensi_checkins_total",
	Help: "Clock-in attempts by result code.",
}, []string{"code"})

// CheckOuts counts clock-out attempts by outcome code.
var CheckOuts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "absensi_checkouts_total",
	Help: "Clock-out attempts by result code.",
}, []string{"code"})
