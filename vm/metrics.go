package vm

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

type metrics struct {
	calls          *prometheus.CounterVec
	queries        *prometheus.CounterVec
	notifications  prometheus.Counter
	notifyFailures prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "calls",
			Help:      "number of executed calls by action and outcome",
		}, []string{"action", "status"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries",
			Help:      "number of served queries by name and outcome",
		}, []string{"query", "status"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notifications",
			Help:      "number of delivered receive notifications",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notification_failures",
			Help:      "number of receive notifications the notifier rejected",
		}),
	}
	return m, errors.Join(
		r.Register(m.calls),
		r.Register(m.queries),
		r.Register(m.notifications),
		r.Register(m.notifyFailures),
	)
}

func status(err error) string {
	if err != nil {
		return statusFailed
	}
	return statusOK
}
