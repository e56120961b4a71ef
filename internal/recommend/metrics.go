package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	togglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "akshar_recommendation_toggles_total",
		Help: "Recommendation toggles by intent and result (ok, rejected, fault).",
	}, []string{"intent", "result"})

	driftGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "akshar_recommendation_drift",
		Help: "Problems whose counter disagrees with the users recommending them, as of the last audit.",
	})
)
