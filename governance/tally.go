package governance

import (
	"fmt"
	"math/big"

	"govexec-project/events"
	"govexec-project/models"
)

// SetTally stores an off-chain computed tally for a proposal in its tally
// phase. Submitting a changed tally invalidates every prior approval; the
// submitter always counts as the first approver of what it submitted.
func (e *Engine) SetTally(id uint64, submitter string, rows [][]*big.Int) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	now := e.clock.Now()

	if err := e.guardRecency(tick); err != nil {
		return err
	}
	submitter = normalizeAddress(submitter)
	if !e.committee.IsMember(submitter) {
		return ErrOnlyCommittee
	}

	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.Executed {
		return ErrProposalAlreadyExecuted
	}
	if now < p.VoteEndDate || now >= p.TallyEndDate {
		return ErrProposalNotInTallyPhase
	}

	tally, err := parseTallyRows(rows)
	if err != nil {
		return err
	}

	if p.Tally != nil {
		// enough approvals lock the tally in; it can no longer be overwritten
		if len(p.Approvers) >= int(e.settings.MinTallyApprovals) {
			return ErrTallyAlreadyApproved
		}
		if p.Tally.Equal(tally) {
			return ErrInvalidTally
		}
		p.Approvers = nil
	}

	p.Tally = tally
	p.Approvers = append(p.Approvers, submitter)

	if err := e.repo.PutProposal(p); err != nil {
		return fmt.Errorf("failed to store proposal: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TalliesSet.Inc()
		e.metrics.TallyApprovals.Inc()
	}
	e.publish(events.TypeTallySet, events.TallySetData{ID: id, Tally: tally.Copy()})
	e.publish(events.TypeTallyApproved, events.TallyApprovedData{ID: id, Approver: submitter})
	return nil
}

// ApproveTally records a committee member's approval of the stored tally.
// With tryExecute set, approval and execution form one atomic operation: when
// any execution precondition fails the whole call, approval included, is
// rejected and nothing is persisted.
func (e *Engine) ApproveTally(id uint64, approver string, tryExecute bool) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	now := e.clock.Now()

	if err := e.guardRecency(tick); err != nil {
		return err
	}
	approver = normalizeAddress(approver)
	if !e.committee.IsMember(approver) {
		return ErrOnlyCommittee
	}

	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.Executed {
		return ErrProposalAlreadyExecuted
	}
	// a tally can only exist inside the tally phase, so this also rejects
	// approvals before the phase opened
	if p.Tally == nil {
		return ErrInvalidTally
	}

	e.pruneStaleApprovers(p)

	// a locked-in tally needs no further approvals, even from the submitter
	if len(p.Approvers) >= int(e.settings.MinTallyApprovals) {
		return ErrTallyAlreadyApproved
	}
	if p.HasApproved(approver) {
		return ErrAlreadyApprovedBySender
	}

	p.Approvers = append(p.Approvers, approver)

	if tryExecute {
		if err := e.executeChecked(p, now); err != nil {
			return err
		}
	} else if err := e.repo.PutProposal(p); err != nil {
		return fmt.Errorf("failed to store proposal: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TallyApprovals.Inc()
	}
	e.publish(events.TypeTallyApproved, events.TallyApprovedData{ID: id, Approver: approver})
	return nil
}

// pruneStaleApprovers drops approvals from addresses no longer on the roster
// when the roster changed at or after the proposal's snapshot tick. The
// snapshot is then advanced so pruning runs at most once per roster change.
func (e *Engine) pruneStaleApprovers(p *models.Proposal) {
	if p.SecurityTick > e.committee.LastChangedTick {
		return
	}
	kept := p.Approvers[:0]
	for _, a := range p.Approvers {
		if e.committee.IsMember(a) {
			kept = append(kept, a)
		}
	}
	p.Approvers = kept
	p.SecurityTick = e.committee.LastChangedTick
}

// parseTallyRows enforces the wire shape: exactly one row of exactly three
// non-negative integers, ordered [yes, no, abstain]
func parseTallyRows(rows [][]*big.Int) (*models.Tally, error) {
	if len(rows) != 1 || len(rows[0]) != 3 {
		return nil, ErrInvalidTally
	}
	for _, v := range rows[0] {
		if v == nil || v.Sign() < 0 {
			return nil, ErrInvalidTally
		}
	}
	return &models.Tally{
		Yes:     new(big.Int).Set(rows[0][0]),
		No:      new(big.Int).Set(rows[0][1]),
		Abstain: new(big.Int).Set(rows[0][2]),
	}, nil
}
