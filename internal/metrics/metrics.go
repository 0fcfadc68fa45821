// Package metrics holds the Prometheus counters for messaging activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	messagesSent      *prometheus.CounterVec
	reactionsToggled  *prometheus.CounterVec
	reactionConflicts *prometheus.CounterVec
	notifications     prometheus.Counter
	realtimeDropped   prometheus.Counter
}

// New registers the counters on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcore_messages_sent_total",
			Help: "Messages persisted, by kind (text or media).",
		}, []string{"kind"}),
		reactionsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcore_reactions_toggled_total",
			Help: "Reaction toggles, by target and outcome.",
		}, []string{"target", "outcome"}),
		reactionConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcore_reaction_conflicts_total",
			Help: "Reaction toggles retried after a storage conflict.",
		}, []string{"target"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatcore_notifications_created_total",
			Help: "Notifications written by message fan-out.",
		}),
		realtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatcore_realtime_dropped_total",
			Help: "Realtime events dropped because a subscriber was too slow.",
		}),
	}
	reg.MustRegister(r.messagesSent, r.reactionsToggled, r.reactionConflicts, r.notifications, r.realtimeDropped)
	return r
}

func (r *Recorder) MessageSent(kind string) {
	if r == nil {
		return
	}
	r.messagesSent.WithLabelValues(kind).Inc()
}

func (r *Recorder) ReactionToggled(target, outcome string) {
	if r == nil {
		return
	}
	r.reactionsToggled.WithLabelValues(target, outcome).Inc()
}

func (r *Recorder) ReactionConflict(target string) {
	if r == nil {
		return
	}
	r.reactionConflicts.WithLabelValues(target).Inc()
}

func (r *Recorder) NotificationsCreated(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.notifications.Add(float64(n))
}

func (r *Recorder) RealtimeDropped() {
	if r == nil {
		return
	}
	r.realtimeDropped.Inc()
}
