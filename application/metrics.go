package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parabot_reminders_created_total",
		Help: "Reminders scheduled, by kind.",
	}, []string{"kind"})

	remindersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parabot_reminders_rejected_total",
		Help: "Reminder requests refused for bad input, by kind.",
	}, []string{"kind"})

	remindersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parabot_reminders_fired_total",
		Help: "Reminder fulfillments, by kind and delivery outcome.",
	}, []string{"kind", "outcome"})

	remindersCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parabot_reminders_cancelled_total",
		Help: "Reminders cancelled by their owner, by kind.",
	}, []string{"kind"})

	remindersRearmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parabot_reminders_rearmed_total",
		Help: "Pending rows re-armed by the recovery sweep, by kind.",
	}, []string{"kind"})

	armedTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parabot_armed_timers",
		Help: "Reminder countdowns currently armed.",
	})
)

const (
	kindPersonal = "personal"
	kindTeam     = "team"
)
