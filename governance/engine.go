package governance

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"govexec-project/clock"
	"govexec-project/events"
	"govexec-project/metrics"
	"govexec-project/models"
	"govexec-project/repository"
)

// Engine implements the proposal state machine and the multisig tally-approval
// logic. Every entry point runs to completion under one mutex and persists
// state only after all guards pass, so each call is all-or-nothing.
type Engine struct {
	repo     repository.GovernanceRepositoryInterface
	clock    clock.Source
	oracle   VotingPowerOracle
	executor ActionExecutor
	bus      *events.Bus
	metrics  *metrics.Metrics

	committee     *models.Committee
	settings      *models.Settings
	settingsTick  uint64
	proposalCount uint64

	mux sync.Mutex
}

// Options carries the optional engine collaborators
type Options struct {
	Oracle  VotingPowerOracle
	Bus     *events.Bus
	Metrics *metrics.Metrics
}

// NewEngine loads persisted governance state from the repository, seeding the
// committee and settings from the given initial values when the store is empty.
func NewEngine(
	repo repository.GovernanceRepositoryInterface,
	clk clock.Source,
	executor ActionExecutor,
	initialMembers []string,
	initialSettings *models.Settings,
	opts Options,
) (*Engine, error) {
	e := &Engine{
		repo:     repo,
		clock:    clk,
		oracle:   opts.Oracle,
		executor: executor,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
	}

	settingsRec, err := repo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settingsRec == nil {
		s := normalizeSettings(initialSettings.Copy())
		if err := validateSettings(s); err != nil {
			return nil, err
		}
		settingsRec = &models.SettingsRecord{Settings: s, LastChangedTick: clk.CurrentTick()}
		if err := repo.PutSettings(settingsRec); err != nil {
			return nil, fmt.Errorf("failed to seed settings: %w", err)
		}
	}
	e.settings = settingsRec.Settings
	e.settingsTick = settingsRec.LastChangedTick

	committee, err := repo.GetCommittee()
	if err != nil {
		return nil, fmt.Errorf("failed to load committee: %w", err)
	}
	if committee == nil {
		members := normalizeAddresses(initialMembers)
		if len(members) == 0 {
			return nil, ErrEmptyInput
		}
		if len(members) > models.MaxCommitteeSize {
			return nil, ErrCommitteeTooLarge
		}
		if len(members) < int(e.settings.MinTallyApprovals) {
			return nil, ErrBelowMinApprovals
		}
		committee = &models.Committee{Members: members, LastChangedTick: clk.CurrentTick()}
		if err := repo.PutCommittee(committee); err != nil {
			return nil, fmt.Errorf("failed to seed committee: %w", err)
		}
	}
	e.committee = committee
	if e.metrics != nil {
		e.metrics.CommitteeSize.Set(float64(committee.Size()))
	}

	count, err := repo.GetProposalCount()
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal counter: %w", err)
	}
	e.proposalCount = count

	return e, nil
}

// guardRecency rejects mutations landing in the same tick as a prior committee
// or settings change. This keeps a single atomic batch from changing the rules
// and exploiting stale proposals in one indivisible step.
func (e *Engine) guardRecency(tick uint64) error {
	if e.committee.LastChangedTick == tick {
		return ErrCommitteeChangedTooRecently
	}
	if e.settingsTick == tick {
		return ErrSettingsChangedTooRecently
	}
	return nil
}

// loadProposal fetches a stored proposal or fails with ErrProposalNotFound
func (e *Engine) loadProposal(id uint64) (*models.Proposal, error) {
	p, err := e.repo.GetProposal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if p == nil {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

func (e *Engine) publish(eventType events.Type, data any) {
	if e.bus != nil {
		e.bus.Publish(eventType, data)
	}
}

// GetProposal returns a snapshot of the proposal with the given ID
func (e *Engine) GetProposal(id uint64) (*models.Proposal, error) {
	e.mux.Lock()
	defer e.mux.Unlock()

	p, err := e.loadProposal(id)
	if err != nil {
		return nil, err
	}
	return p.Copy(), nil
}

// ListProposals returns snapshots of every proposal in ID order
func (e *Engine) ListProposals() ([]*models.Proposal, error) {
	e.mux.Lock()
	defer e.mux.Unlock()

	stored, err := e.repo.GetAllProposals()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Proposal, len(stored))
	for i, p := range stored {
		out[i] = p.Copy()
	}
	return out, nil
}

// ProposalCount returns the number of proposals created so far
func (e *Engine) ProposalCount() uint64 {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.proposalCount
}

// GetSettings returns a snapshot of the current settings
func (e *Engine) GetSettings() *models.Settings {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.settings.Copy()
}

// LastSettingsChange returns the tick of the last settings update
func (e *Engine) LastSettingsChange() uint64 {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.settingsTick
}

// GetCommittee returns a snapshot of the multisig roster
func (e *Engine) GetCommittee() *models.Committee {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.committee.Copy()
}

// IsMember reports whether addr belongs to the multisig roster
func (e *Engine) IsMember(addr string) bool {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.committee.IsMember(normalizeAddress(addr))
}

// CommitteeSize returns the multisig roster size
func (e *Engine) CommitteeSize() int {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.committee.Size()
}

// LastCommitteeChange returns the tick of the last roster mutation
func (e *Engine) LastCommitteeChange() uint64 {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.committee.LastChangedTick
}

// normalizeAddress lowercases an address so membership checks are case-insensitive
func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// normalizeAddresses lowercases and deduplicates, preserving first-seen order
func normalizeAddresses(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		n := normalizeAddress(a)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// normalizeSettings fills nil big.Int fields with zero
func normalizeSettings(s *models.Settings) *models.Settings {
	if s.MinProposerVotingPower == nil {
		s.MinProposerVotingPower = new(big.Int)
	}
	return s
}
