package governance

import (
	"errors"
	"fmt"
)

var (
	// ErrProposalNotFound indicates the proposal ID is unknown
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrOnlyCommittee indicates the caller is not an execution multisig member
	ErrOnlyCommittee = errors.New("caller is not an execution multisig member")

	// ErrNotEnoughVotingPower indicates both votes and balance are below the proposer floor
	ErrNotEnoughVotingPower = errors.New("not enough voting power to create a proposal")

	// ErrEmptyInput indicates an empty member list was passed to a roster mutation
	ErrEmptyInput = errors.New("empty member list")

	// ErrCommitteeTooLarge indicates the roster would exceed its maximum size
	ErrCommitteeTooLarge = errors.New("committee exceeds maximum size")

	// ErrBelowMinApprovals indicates the roster would drop below min tally approvals
	ErrBelowMinApprovals = errors.New("committee would drop below minimum tally approvals")

	// ErrCommitteeChangedTooRecently indicates the roster already changed this tick
	ErrCommitteeChangedTooRecently = errors.New("committee changed too recently")

	// ErrSettingsChangedTooRecently indicates the settings already changed this tick
	ErrSettingsChangedTooRecently = errors.New("settings changed too recently")

	// ErrInvalidTally indicates a malformed, missing, or no-op-resubmitted tally
	ErrInvalidTally = errors.New("invalid tally")

	// ErrTallyAlreadyApproved indicates the tally already reached min approvals and is locked in
	ErrTallyAlreadyApproved = errors.New("tally already approved")

	// ErrAlreadyApprovedBySender indicates the caller already approved this tally
	ErrAlreadyApprovedBySender = errors.New("tally already approved by sender")

	// ErrProposalAlreadyExecuted indicates the proposal reached its terminal state
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")

	// ErrProposalNotInTallyPhase indicates the tally window is not open
	ErrProposalNotInTallyPhase = errors.New("proposal is not in the tally phase")

	// ErrNotEnoughApprovals indicates the approver count is below min tally approvals
	ErrNotEnoughApprovals = errors.New("not enough tally approvals")

	// ErrMinParticipationNotReached indicates the tally's power is below the participation floor
	ErrMinParticipationNotReached = errors.New("minimum participation not reached")

	// ErrSupportThresholdNotReached indicates yes votes do not clear the support ratio
	ErrSupportThresholdNotReached = errors.New("support threshold not reached")

	// ErrInvalidTotalPower indicates a zero participation denominator at creation
	ErrInvalidTotalPower = errors.New("invalid total voting power")
)

// InvalidStartDateError reports a start date before the current time
type InvalidStartDateError struct {
	Limit  uint64
	Actual uint64
}

func (e *InvalidStartDateError) Error() string {
	return fmt.Sprintf("invalid start date: must be at least %d, got %d", e.Limit, e.Actual)
}

// InvalidVoteEndDateError reports a vote end date before start + min vote duration
type InvalidVoteEndDateError struct {
	Limit  uint64
	Actual uint64
}

func (e *InvalidVoteEndDateError) Error() string {
	return fmt.Sprintf("invalid vote end date: must be at least %d, got %d", e.Limit, e.Actual)
}

// InvalidTallyEndDateError reports a tally end date before vote end + min tally duration
type InvalidTallyEndDateError struct {
	Limit  uint64
	Actual uint64
}

func (e *InvalidTallyEndDateError) Error() string {
	return fmt.Sprintf("invalid tally end date: must be at least %d, got %d", e.Limit, e.Actual)
}

// RatioOutOfBoundsError reports a ratio field outside its allowed range
type RatioOutOfBoundsError struct {
	Field  string
	Limit  uint64
	Actual uint64
}

func (e *RatioOutOfBoundsError) Error() string {
	return fmt.Sprintf("%s out of bounds: limit %d, got %d", e.Field, e.Limit, e.Actual)
}

// DurationOutOfBoundsError reports a duration field outside [MinDuration, MaxDuration]
type DurationOutOfBoundsError struct {
	Field  string
	Min    uint64
	Max    uint64
	Actual uint64
}

func (e *DurationOutOfBoundsError) Error() string {
	return fmt.Sprintf("%s out of bounds: must be within [%d, %d], got %d", e.Field, e.Min, e.Max, e.Actual)
}
