package handlers

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"govexec-project/governance"
	"govexec-project/logger"
	"govexec-project/models"
)

// Handler contains the HTTP handlers for the governance API endpoints
type Handler struct {
	Engine *governance.Engine
}

// NewHandler creates and returns a new Handler instance
func NewHandler(e *governance.Engine) *Handler {
	return &Handler{Engine: e}
}

// RequestID tags every request with a uuid and logs it
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		logger.Logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

type actionRequest struct {
	Target  string `json:"target"`
	Value   string `json:"value"`
	Payload []byte `json:"payload"`
}

type createProposalRequest struct {
	ExternalID       string          `json:"external_id"`
	Creator          string          `json:"creator"`
	StartDate        uint64          `json:"start_date"`
	VoteEndDate      uint64          `json:"vote_end_date"`
	TallyEndDate     uint64          `json:"tally_end_date"`
	TotalVotingPower string          `json:"total_voting_power"`
	CensusURI        string          `json:"census_uri"`
	CensusRoot       string          `json:"census_root"`
	AllowFailureMap  string          `json:"allow_failure_map"`
	Actions          []actionRequest `json:"actions"`
}

type setTallyRequest struct {
	Submitter string     `json:"submitter"`
	Tally     [][]string `json:"tally"`
}

type approveTallyRequest struct {
	Approver   string `json:"approver"`
	TryExecute bool   `json:"try_execute"`
}

type membersRequest struct {
	Members []string `json:"members"`
}

// CreateProposal handles POST /proposals
func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("failed to decode proposal", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	params := governance.ProposalParams{
		ExternalID:       req.ExternalID,
		Creator:          req.Creator,
		StartDate:        req.StartDate,
		VoteEndDate:      req.VoteEndDate,
		TallyEndDate:     req.TallyEndDate,
		TotalVotingPower: parseBig(req.TotalVotingPower),
		CensusURI:        req.CensusURI,
		CensusRoot:       req.CensusRoot,
		AllowFailureMap:  parseBig(req.AllowFailureMap),
	}
	for _, a := range req.Actions {
		params.Actions = append(params.Actions, models.Action{
			Target:  a.Target,
			Value:   parseBig(a.Value),
			Payload: a.Payload,
		})
	}

	id, err := h.Engine.CreateProposal(params)
	if err != nil {
		logger.Logger.Error("failed to create proposal", zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// GetProposal handles GET /proposals/{id}
func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	p, err := h.Engine.GetProposal(id)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListProposals handles GET /proposals
func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.Engine.ListProposals()
	if err != nil {
		logger.Logger.Error("failed to list proposals", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

// SetTally handles POST /proposals/{id}/tally
func (h *Handler) SetTally(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	var req setTallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("failed to decode tally", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	rows := make([][]*big.Int, len(req.Tally))
	for i, row := range req.Tally {
		rows[i] = make([]*big.Int, len(row))
		for j, cell := range row {
			// unparseable cells stay nil and fail the engine's shape check
			rows[i][j], _ = new(big.Int).SetString(cell, 10)
		}
	}

	if err := h.Engine.SetTally(id, req.Submitter, rows); err != nil {
		logger.Logger.Error("failed to set tally", zap.Uint64("proposal_id", id), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "tally set"})
}

// ApproveTally handles POST /proposals/{id}/approve
func (h *Handler) ApproveTally(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	var req approveTallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("failed to decode approval", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.Engine.ApproveTally(id, req.Approver, req.TryExecute); err != nil {
		logger.Logger.Error("failed to approve tally", zap.Uint64("proposal_id", id), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "tally approved"})
}

// ExecuteProposal handles POST /proposals/{id}/execute
func (h *Handler) ExecuteProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.ExecuteProposal(id); err != nil {
		logger.Logger.Error("failed to execute proposal", zap.Uint64("proposal_id", id), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "proposal executed"})
}

// GetSettings handles GET /settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.GetSettings())
}

// UpdateSettings handles PUT /settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s models.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		logger.Logger.Error("failed to decode settings", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.Engine.UpdateSettings(&s); err != nil {
		logger.Logger.Error("failed to update settings", zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.GetSettings())
}

// GetCommittee handles GET /committee
func (h *Handler) GetCommittee(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.GetCommittee())
}

// IsMember handles GET /committee/{address}
func (h *Handler) IsMember(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	writeJSON(w, http.StatusOK, map[string]any{
		"address":   address,
		"is_member": h.Engine.IsMember(address),
	})
}

// AddMembers handles POST /committee/add
func (h *Handler) AddMembers(w http.ResponseWriter, r *http.Request) {
	h.mutateMembers(w, r, h.Engine.AddMembers)
}

// RemoveMembers handles POST /committee/remove
func (h *Handler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	h.mutateMembers(w, r, h.Engine.RemoveMembers)
}

func (h *Handler) mutateMembers(w http.ResponseWriter, r *http.Request, op func([]string) error) {
	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("failed to decode members", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := op(req.Members); err != nil {
		logger.Logger.Error("failed to mutate committee", zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.GetCommittee())
}

func proposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return 0, false
	}
	return id, true
}

func parseBig(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// statusForError maps the engine error taxonomy onto HTTP statuses
func statusForError(err error) int {
	var startErr *governance.InvalidStartDateError
	var voteEndErr *governance.InvalidVoteEndDateError
	var tallyEndErr *governance.InvalidTallyEndDateError
	var ratioErr *governance.RatioOutOfBoundsError
	var durationErr *governance.DurationOutOfBoundsError

	switch {
	case errors.Is(err, governance.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, governance.ErrOnlyCommittee),
		errors.Is(err, governance.ErrNotEnoughVotingPower):
		return http.StatusForbidden
	case errors.Is(err, governance.ErrInvalidTally),
		errors.Is(err, governance.ErrEmptyInput),
		errors.Is(err, governance.ErrCommitteeTooLarge),
		errors.Is(err, governance.ErrBelowMinApprovals),
		errors.Is(err, governance.ErrInvalidTotalPower),
		errors.As(err, &startErr),
		errors.As(err, &voteEndErr),
		errors.As(err, &tallyEndErr),
		errors.As(err, &ratioErr),
		errors.As(err, &durationErr):
		return http.StatusBadRequest
	case errors.Is(err, governance.ErrCommitteeChangedTooRecently),
		errors.Is(err, governance.ErrSettingsChangedTooRecently),
		errors.Is(err, governance.ErrTallyAlreadyApproved),
		errors.Is(err, governance.ErrAlreadyApprovedBySender),
		errors.Is(err, governance.ErrProposalAlreadyExecuted),
		errors.Is(err, governance.ErrProposalNotInTallyPhase):
		return http.StatusConflict
	case errors.Is(err, governance.ErrNotEnoughApprovals),
		errors.Is(err, governance.ErrMinParticipationNotReached),
		errors.Is(err, governance.ErrSupportThresholdNotReached):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
