package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the governance counters exposed on /metrics
type Metrics struct {
	ProposalsCreated  prometheus.Counter
	ProposalsExecuted prometheus.Counter
	TalliesSet        prometheus.Counter
	TallyApprovals    prometheus.Counter
	SettingsUpdates   prometheus.Counter
	CommitteeSize     prometheus.Gauge
}

// New registers the governance metrics with the given registry
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		ProposalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "govexec_proposals_created_total",
			Help: "Number of proposals created",
		}),
		ProposalsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "govexec_proposals_executed_total",
			Help: "Number of proposals executed",
		}),
		TalliesSet: factory.NewCounter(prometheus.CounterOpts{
			Name: "govexec_tallies_set_total",
			Help: "Number of tally submissions accepted",
		}),
		TallyApprovals: factory.NewCounter(prometheus.CounterOpts{
			Name: "govexec_tally_approvals_total",
			Help: "Number of tally approvals recorded",
		}),
		SettingsUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "govexec_settings_updates_total",
			Help: "Number of governance settings updates",
		}),
		CommitteeSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "govexec_committee_size",
			Help: "Current execution multisig size",
		}),
	}
}
