package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
)

// Metrics holds the domain counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	xpAwarded            *prometheus.CounterVec
	tasksCompleted       prometheus.Counter
	achievementsUnlocked prometheus.Counter
	recurrenceFailures   prometheus.Counter
	notificationsSent    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		xpAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitquest_xp_awarded_total",
				Help: "Total XP awarded, by source",
			},
			[]string{"source"},
		),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_tasks_completed_total",
			Help: "Total number of completed tasks",
		}),
		achievementsUnlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_achievements_unlocked_total",
			Help: "Total number of unlocked achievements",
		}),
		recurrenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_recurrence_failures_total",
			Help: "Recurring tasks whose next instance could not be created",
		}),
		notificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitquest_notifications_sent_total",
				Help: "Push notifications handled by the dispatcher, by status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.xpAwarded, m.tasksCompleted, m.achievementsUnlocked, m.recurrenceFailures, m.notificationsSent)
	return m
}

func (m *Metrics) XPAwarded(source progression.Source, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.xpAwarded.WithLabelValues(string(source)).Add(float64(amount))
}

func (m *Metrics) TaskCompleted() {
	if m == nil {
		return
	}
	m.tasksCompleted.Inc()
}

func (m *Metrics) AchievementsUnlocked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.achievementsUnlocked.Add(float64(n))
}

func (m *Metrics) RecurrenceFailed() {
	if m == nil {
		return
	}
	m.recurrenceFailures.Inc()
}

func (m *Metrics) NotificationSent(status string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(status).Inc()
}
