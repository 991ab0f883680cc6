package models

import "math/big"

// Action is a single call a proposal performs on execution
type Action struct {
	Target  string   `json:"target"`            // destination address
	Value   *big.Int `json:"value"`             // native value forwarded with the call
	Payload []byte   `json:"payload,omitempty"` // call data
}

// Copy returns a deep copy of the action
func (a Action) Copy() Action {
	out := Action{Target: a.Target}
	if a.Value != nil {
		out.Value = new(big.Int).Set(a.Value)
	}
	if a.Payload != nil {
		out.Payload = append([]byte(nil), a.Payload...)
	}
	return out
}

// CopyActions deep-copies an action list
func CopyActions(actions []Action) []Action {
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	for i, a := range actions {
		out[i] = a.Copy()
	}
	return out
}

// Tally holds the aggregated off-chain vote counts for one proposal
type Tally struct {
	Yes     *big.Int `json:"yes"`
	No      *big.Int `json:"no"`
	Abstain *big.Int `json:"abstain"`
}

// Equal reports whether two tallies carry identical counts
func (t *Tally) Equal(o *Tally) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Yes.Cmp(o.Yes) == 0 && t.No.Cmp(o.No) == 0 && t.Abstain.Cmp(o.Abstain) == 0
}

// VotingPower returns yes + no + abstain
func (t *Tally) VotingPower() *big.Int {
	sum := new(big.Int).Add(t.Yes, t.No)
	return sum.Add(sum, t.Abstain)
}

// Copy returns a deep copy of the tally
func (t *Tally) Copy() *Tally {
	if t == nil {
		return nil
	}
	return &Tally{
		Yes:     new(big.Int).Set(t.Yes),
		No:      new(big.Int).Set(t.No),
		Abstain: new(big.Int).Set(t.Abstain),
	}
}

// Proposal is a governance proposal tracked through the tally-approval lifecycle
type Proposal struct {
	ID               uint64   `json:"id"`                 // sequential, never reused
	ExternalID       string   `json:"external_id"`        // 32-byte opaque handle, hex
	Creator          string   `json:"creator"`            // proposer address
	Executed         bool     `json:"executed"`           // terminal once true
	SecurityTick     uint64   `json:"security_tick"`      // committee snapshot anchor
	StartDate        uint64   `json:"start_date"`         // unix seconds
	VoteEndDate      uint64   `json:"vote_end_date"`      // unix seconds
	TallyEndDate     uint64   `json:"tally_end_date"`     // unix seconds
	TotalVotingPower *big.Int `json:"total_voting_power"` // participation denominator
	CensusURI        string   `json:"census_uri"`
	CensusRoot       string   `json:"census_root"`
	AllowFailureMap  *big.Int `json:"allow_failure_map"` // per-action failure tolerance bitmap
	Tally            *Tally   `json:"tally,omitempty"`
	Approvers        []string `json:"approvers"` // ordered, unique
	Actions          []Action `json:"actions"`
}

// HasApproved reports whether addr already approved the stored tally
func (p *Proposal) HasApproved(addr string) bool {
	for _, a := range p.Approvers {
		if a == addr {
			return true
		}
	}
	return false
}

// Copy returns a deep copy so callers never alias stored state
func (p *Proposal) Copy() *Proposal {
	if p == nil {
		return nil
	}
	out := *p
	if p.TotalVotingPower != nil {
		out.TotalVotingPower = new(big.Int).Set(p.TotalVotingPower)
	}
	if p.AllowFailureMap != nil {
		out.AllowFailureMap = new(big.Int).Set(p.AllowFailureMap)
	}
	out.Tally = p.Tally.Copy()
	out.Approvers = append([]string(nil), p.Approvers...)
	out.Actions = CopyActions(p.Actions)
	return &out
}
