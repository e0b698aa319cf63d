package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Auth struct {
	Registry *prometheus.Registry

	Attempts *prometheus.CounterVec
	Refresh  *prometheus.CounterVec
	Issued   *prometheus.CounterVec
}

func NewAuth() *Auth {
	reg := prometheus.NewRegistry()
	m := &Auth{
		Registry: reg,
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Register and authenticate attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "auth",
			Name:      "refresh_total",
			Help:      "Refresh token rotations by outcome.",
		}, []string{"outcome"}),
		Issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courses",
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Issued tokens by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.Attempts, m.Refresh, m.Issued)
	return m
}

func (m *Auth) Attempt(operation string, err error) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Auth) Refreshed(err error) {
	if m == nil {
		return
	}
	m.Refresh.WithLabelValues(outcome(err)).Inc()
}

func (m *Auth) TokenIssued(kind string) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(kind).Inc()
}

func (m *Auth) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
