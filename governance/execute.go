package governance

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"govexec-project/events"
	"govexec-project/logger"
	"govexec-project/models"
)

// ExecuteProposal re-checks every execution threshold and, when all pass,
// runs the proposal's actions through the execution sink.
func (e *Engine) ExecuteProposal(id uint64) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	now := e.clock.Now()

	if err := e.guardRecency(tick); err != nil {
		return err
	}

	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	return e.executeChecked(p, now)
}

// executeChecked is the shared execution gate. The executed flag is persisted
// BEFORE the sink is invoked so a reentrant call cannot execute twice.
func (e *Engine) executeChecked(p *models.Proposal, now uint64) error {
	if p.Executed {
		return ErrProposalAlreadyExecuted
	}
	if p.Tally == nil {
		return ErrInvalidTally
	}
	if p.TallyEndDate < now {
		return ErrProposalNotInTallyPhase
	}
	if len(p.Approvers) < int(e.settings.MinTallyApprovals) {
		return ErrNotEnoughApprovals
	}

	currentPower := p.Tally.VotingPower()
	if currentPower.Cmp(minParticipationPower(p.TotalVotingPower, e.settings.MinParticipation)) < 0 {
		return ErrMinParticipationNotReached
	}
	if !supportReached(p.Tally, e.settings.SupportThreshold) {
		return ErrSupportThresholdNotReached
	}

	p.Executed = true
	if err := e.repo.PutProposal(p); err != nil {
		return fmt.Errorf("failed to store proposal: %w", err)
	}

	results, failureMap, err := e.executor.Execute(p.ID, models.CopyActions(p.Actions), new(big.Int).Set(p.AllowFailureMap))
	if err != nil {
		// the proposal stays executed; the sink owns partial-failure semantics
		logger.Logger.Error("action execution failed",
			zap.Uint64("proposal_id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to execute actions: %w", err)
	}

	if e.metrics != nil {
		e.metrics.ProposalsExecuted.Inc()
	}
	e.publish(events.TypeProposalExecuted, events.ProposalExecutedData{ID: p.ID})
	logger.Logger.Info("proposal executed",
		zap.Uint64("proposal_id", p.ID),
		zap.Int("actions", len(p.Actions)),
		zap.Int("results", len(results)),
		zap.String("failure_map", failureMap.String()))
	return nil
}

// minParticipationPower computes ceil(total * ratio / RatioBase)
func minParticipationPower(total *big.Int, ratio uint32) *big.Int {
	base := new(big.Int).SetUint64(models.RatioBase)
	num := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(ratio)))
	num.Add(num, new(big.Int).Sub(base, big.NewInt(1)))
	return num.Div(num, base)
}

// supportReached checks yes/(yes+no) > threshold/RatioBase without division,
// by cross-multiplying: (RatioBase - threshold) * yes > threshold * no.
// Abstain votes deliberately do not count toward either side.
func supportReached(t *models.Tally, threshold uint32) bool {
	lhs := new(big.Int).SetUint64(models.RatioBase - uint64(threshold))
	lhs.Mul(lhs, t.Yes)
	rhs := new(big.Int).SetUint64(uint64(threshold))
	rhs.Mul(rhs, t.No)
	return lhs.Cmp(rhs) > 0
}
