package governance

import (
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"govexec-project/events"
	"govexec-project/logger"
	"govexec-project/models"
)

// ProposalParams carries the caller-supplied inputs for proposal creation.
// A zero date means "derive from the minimum durations".
type ProposalParams struct {
	ExternalID       string
	Creator          string
	StartDate        uint64
	VoteEndDate      uint64
	TallyEndDate     uint64
	TotalVotingPower *big.Int
	CensusURI        string
	CensusRoot       string
	AllowFailureMap  *big.Int
	Actions          []models.Action
}

// CreateProposal validates dates and proposer power, allocates the next
// sequential ID and stores the proposal with the current tick as its
// committee snapshot anchor.
func (e *Engine) CreateProposal(params ProposalParams) (uint64, error) {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	now := e.clock.Now()

	if err := e.guardRecency(tick); err != nil {
		return 0, err
	}

	creator := normalizeAddress(params.Creator)
	if e.settings.OnlyCommitteeCanPropose {
		if !e.committee.IsMember(creator) {
			return 0, ErrOnlyCommittee
		}
	} else if e.settings.MinProposerVotingPower.Sign() > 0 {
		if err := e.checkProposerPower(creator); err != nil {
			return 0, err
		}
	}

	start, voteEnd, tallyEnd, err := deriveProposalDates(
		now, params.StartDate, params.VoteEndDate, params.TallyEndDate,
		e.settings.MinVoteDuration, e.settings.MinTallyDuration)
	if err != nil {
		return 0, err
	}

	totalPower := params.TotalVotingPower
	if totalPower == nil {
		totalPower = new(big.Int)
	}
	if e.settings.RequireTotalPower && totalPower.Sign() <= 0 {
		return 0, ErrInvalidTotalPower
	}

	allowFailureMap := params.AllowFailureMap
	if allowFailureMap == nil {
		allowFailureMap = new(big.Int)
	}

	id := e.proposalCount
	proposal := &models.Proposal{
		ID:               id,
		ExternalID:       params.ExternalID,
		Creator:          creator,
		SecurityTick:     tick,
		StartDate:        start,
		VoteEndDate:      voteEnd,
		TallyEndDate:     tallyEnd,
		TotalVotingPower: new(big.Int).Set(totalPower),
		CensusURI:        params.CensusURI,
		CensusRoot:       params.CensusRoot,
		AllowFailureMap:  new(big.Int).Set(allowFailureMap),
		Actions:          models.CopyActions(params.Actions),
	}

	if err := e.repo.PutProposal(proposal); err != nil {
		return 0, fmt.Errorf("failed to store proposal: %w", err)
	}
	if err := e.repo.PutProposalCount(id + 1); err != nil {
		return 0, fmt.Errorf("failed to store proposal counter: %w", err)
	}
	e.proposalCount = id + 1

	if e.metrics != nil {
		e.metrics.ProposalsCreated.Inc()
	}
	e.publish(events.TypeProposalCreated, events.ProposalCreatedData{
		ID:              id,
		ExternalID:      proposal.ExternalID,
		Creator:         creator,
		StartDate:       start,
		VoteEndDate:     voteEnd,
		TallyEndDate:    tallyEnd,
		Actions:         models.CopyActions(proposal.Actions),
		AllowFailureMap: allowFailureMap.String(),
	})
	logger.Logger.Info("proposal created",
		zap.Uint64("proposal_id", id),
		zap.String("creator", creator),
		zap.Uint64("start_date", start),
		zap.Uint64("vote_end_date", voteEnd),
		zap.Uint64("tally_end_date", tallyEnd))

	return id, nil
}

// checkProposerPower rejects only when BOTH delegated votes and raw balance are
// below the configured floor
func (e *Engine) checkProposerPower(creator string) error {
	if e.oracle == nil {
		return ErrNotEnoughVotingPower
	}
	floor := e.settings.MinProposerVotingPower

	votes, err := e.oracle.GetVotes(creator)
	if err != nil {
		return fmt.Errorf("failed to query votes: %w", err)
	}
	if votes != nil && votes.Cmp(floor) >= 0 {
		return nil
	}

	balance, err := e.oracle.BalanceOf(creator)
	if err != nil {
		return fmt.Errorf("failed to query balance: %w", err)
	}
	if balance != nil && balance.Cmp(floor) >= 0 {
		return nil
	}
	return ErrNotEnoughVotingPower
}

// deriveProposalDates resolves raw dates, deriving each zero value from the
// previous boundary plus the minimum duration. Overflow surfaces as the
// corresponding date error instead of wrapping.
func deriveProposalDates(now, start, voteEnd, tallyEnd, minVote, minTally uint64) (uint64, uint64, uint64, error) {
	if start == 0 {
		start = now
	} else if start < now {
		return 0, 0, 0, &InvalidStartDateError{Limit: now, Actual: start}
	}

	earliestVoteEnd, ok := addChecked(start, minVote)
	if !ok {
		return 0, 0, 0, &InvalidVoteEndDateError{Limit: math.MaxUint64, Actual: voteEnd}
	}
	if voteEnd == 0 {
		voteEnd = earliestVoteEnd
	} else if voteEnd < earliestVoteEnd {
		return 0, 0, 0, &InvalidVoteEndDateError{Limit: earliestVoteEnd, Actual: voteEnd}
	}

	earliestTallyEnd, ok := addChecked(voteEnd, minTally)
	if !ok {
		return 0, 0, 0, &InvalidTallyEndDateError{Limit: math.MaxUint64, Actual: tallyEnd}
	}
	if tallyEnd == 0 {
		tallyEnd = earliestTallyEnd
	} else if tallyEnd < earliestTallyEnd {
		return 0, 0, 0, &InvalidTallyEndDateError{Limit: earliestTallyEnd, Actual: tallyEnd}
	}

	return start, voteEnd, tallyEnd, nil
}

func addChecked(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
