package routers

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"govexec-project/handlers"
)

// RegisterRoutes sets up all the HTTP routes for the governance API
func RegisterRoutes(r *mux.Router, h *handlers.Handler, registry *prometheus.Registry) {
	r.Use(handlers.RequestID)

	// Proposal lifecycle
	r.HandleFunc("/proposals", h.CreateProposal).Methods("POST")
	r.HandleFunc("/proposals", h.ListProposals).Methods("GET")
	r.HandleFunc("/proposals/{id}", h.GetProposal).Methods("GET")

	// Tally submission and multisig approval
	r.HandleFunc("/proposals/{id}/tally", h.SetTally).Methods("POST")
	r.HandleFunc("/proposals/{id}/approve", h.ApproveTally).Methods("POST")
	r.HandleFunc("/proposals/{id}/execute", h.ExecuteProposal).Methods("POST")

	// Governance settings
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")

	// Execution multisig roster
	r.HandleFunc("/committee", h.GetCommittee).Methods("GET")
	r.HandleFunc("/committee/add", h.AddMembers).Methods("POST")
	r.HandleFunc("/committee/remove", h.RemoveMembers).Methods("POST")
	r.HandleFunc("/committee/{address}", h.IsMember).Methods("GET")

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
}
