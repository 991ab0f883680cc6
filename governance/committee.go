package governance

import (
	"fmt"

	"govexec-project/events"
	"govexec-project/models"
)

// AddMembers inserts new addresses into the execution multisig. Insertion is
// idempotent per address; the roster keeps first-seen order.
func (e *Engine) AddMembers(members []string) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	if len(members) == 0 {
		return ErrEmptyInput
	}
	if e.committee.LastChangedTick == tick {
		return ErrCommitteeChangedTooRecently
	}

	next := e.committee.Copy()
	added := make([]string, 0, len(members))
	for _, m := range normalizeAddresses(members) {
		if next.IsMember(m) {
			continue
		}
		next.Members = append(next.Members, m)
		added = append(added, m)
	}
	if next.Size() > models.MaxCommitteeSize {
		return ErrCommitteeTooLarge
	}
	next.LastChangedTick = tick

	if err := e.repo.PutCommittee(next); err != nil {
		return fmt.Errorf("failed to store committee: %w", err)
	}
	e.committee = next

	if e.metrics != nil {
		e.metrics.CommitteeSize.Set(float64(next.Size()))
	}
	e.publish(events.TypeMembersAdded, events.MembersChangedData{Members: added})
	return nil
}

// RemoveMembers removes addresses from the execution multisig. The roster may
// never drop below the current minimum tally approvals, and never to zero.
func (e *Engine) RemoveMembers(members []string) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	if len(members) == 0 {
		return ErrEmptyInput
	}
	if e.committee.LastChangedTick == tick {
		return ErrCommitteeChangedTooRecently
	}

	drop := make(map[string]struct{}, len(members))
	for _, m := range normalizeAddresses(members) {
		drop[m] = struct{}{}
	}

	next := &models.Committee{LastChangedTick: tick}
	removed := make([]string, 0, len(drop))
	for _, m := range e.committee.Members {
		if _, ok := drop[m]; ok {
			removed = append(removed, m)
			continue
		}
		next.Members = append(next.Members, m)
	}

	if next.Size() == 0 || next.Size() < int(e.settings.MinTallyApprovals) {
		return ErrBelowMinApprovals
	}

	if err := e.repo.PutCommittee(next); err != nil {
		return fmt.Errorf("failed to store committee: %w", err)
	}
	e.committee = next

	if e.metrics != nil {
		e.metrics.CommitteeSize.Set(float64(next.Size()))
	}
	e.publish(events.TypeMembersRemoved, events.MembersChangedData{Members: removed})
	return nil
}
