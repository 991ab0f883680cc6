package models

import "math/big"

const (
	// RatioBase is the fixed-point denominator for participation and support ratios
	RatioBase uint64 = 1_000_000

	// MinDuration and MaxDuration bound the vote and tally windows, in seconds
	MinDuration uint64 = 3_600      // one hour
	MaxDuration uint64 = 31_536_000 // one year

	// MaxCommitteeSize bounds the execution multisig roster
	MaxCommitteeSize = 65535
)

// Settings is the validated governance configuration
type Settings struct {
	OnlyCommitteeCanPropose bool     `json:"only_committee_can_propose"`
	MinTallyApprovals       uint16   `json:"min_tally_approvals"`
	MinParticipation        uint32   `json:"min_participation"` // 0..=RatioBase
	SupportThreshold        uint32   `json:"support_threshold"` // 0..RatioBase exclusive
	MinVoteDuration         uint64   `json:"min_vote_duration"` // seconds
	MinTallyDuration        uint64   `json:"min_tally_duration"`
	DAOTokenAddress         string   `json:"dao_token_address"`
	MinProposerVotingPower  *big.Int `json:"min_proposer_voting_power"`
	CensusStrategyURI       string   `json:"census_strategy_uri"`
	RequireTotalPower       bool     `json:"require_total_power"` // reject zero participation denominators
}

// Copy returns a deep copy of the settings
func (s *Settings) Copy() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	if s.MinProposerVotingPower != nil {
		out.MinProposerVotingPower = new(big.Int).Set(s.MinProposerVotingPower)
	}
	return &out
}

// SettingsRecord is the stored settings plus its last-change marker
type SettingsRecord struct {
	Settings        *Settings `json:"settings"`
	LastChangedTick uint64    `json:"last_changed_tick"`
}
