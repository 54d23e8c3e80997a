package poll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "closurewatch_poll_cycles_total",
		Help: "Completed poll cycles by result",
	}, []string{"result"})
	activeClosures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "closurewatch_active_closures",
		Help: "Closures inside the bounding box as of the last cycle",
	})
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "closurewatch_closure_transitions_total",
		Help: "Closure set changes by kind",
	}, []string{"kind"})
	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "closurewatch_messages_sent_total",
		Help: "SMS messages handed to the transport (message x recipient)",
	})
	activeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "closurewatch_active_subscribers",
		Help: "Valid subscribers as of the last notification cycle",
	})
)
