package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "double_elimination"

// TournamentMetrics records progress of the active tournament. A nil
// *TournamentMetrics is valid and records nothing.
type TournamentMetrics struct {
	resultsSubmitted *prometheus.CounterVec
	roundsAdvanced   prometheus.Counter
	transitionErrors *prometheus.CounterVec
	currentRound     prometheus.Gauge
	tournaments      *prometheus.CounterVec
}

func NewTournamentMetrics(reg prometheus.Registerer) *TournamentMetrics {
	m := &TournamentMetrics{
		resultsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_submitted_total",
			Help:      "Match results accepted, by bracket.",
		}, []string{"bracket"}),
		roundsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_advanced_total",
			Help:      "Successful round advances.",
		}),
		transitionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transition_errors_total",
			Help:      "Rejected state transitions, by operation.",
		}, []string{"operation"}),
		currentRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_round",
			Help:      "Current round of the active tournament.",
		}),
		tournaments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournaments_total",
			Help:      "Tournaments started and completed.",
		}, []string{"event"}),
	}
	if reg != nil {
		reg.MustRegister(m.resultsSubmitted, m.roundsAdvanced, m.transitionErrors, m.currentRound, m.tournaments)
	}
	return m
}

func (m *TournamentMetrics) ResultSubmitted(bracket string) {
	if m == nil {
		return
	}
	m.resultsSubmitted.WithLabelValues(bracket).Inc()
}

func (m *TournamentMetrics) RoundAdvanced(round int) {
	if m == nil {
		return
	}
	m.roundsAdvanced.Inc()
	m.currentRound.Set(float64(round))
}

// RoundRestored sets the round gauge after a restart without counting an advance.
func (m *TournamentMetrics) RoundRestored(round int) {
	if m == nil {
		return
	}
	m.currentRound.Set(float64(round))
}

func (m *TournamentMetrics) TransitionFailed(operation string) {
	if m == nil {
		return
	}
	m.transitionErrors.WithLabelValues(operation).Inc()
}

func (m *TournamentMetrics) TournamentStarted() {
	if m == nil {
		return
	}
	m.tournaments.WithLabelValues("started").Inc()
	m.currentRound.Set(1)
}

func (m *TournamentMetrics) TournamentCompleted() {
	if m == nil {
		return
	}
	m.tournaments.WithLabelValues("completed").Inc()
}
