package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "akshar_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	answersGradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "akshar_answers_graded_total",
		Help: "Graded answers by content kind and result (correct, incorrect, rejected, fault).",
	}, []string{"kind", "result"})
)
