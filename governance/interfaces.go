package governance

import (
	"math/big"

	"govexec-project/models"
)

// VotingPowerOracle reads governance-token voting power for proposer checks.
// Creation passes when EITHER delegated votes or raw balance meets the floor.
type VotingPowerOracle interface {
	GetVotes(address string) (*big.Int, error)
	BalanceOf(address string) (*big.Int, error)
}

// ActionExecutor runs a proposal's action list once the thresholds are met.
// It returns per-action results and a bitmap of failed actions; tolerance for
// partial failure is delegated entirely through allowFailureMap.
type ActionExecutor interface {
	Execute(proposalID uint64, actions []models.Action, allowFailureMap *big.Int) (results [][]byte, failureMap *big.Int, err error)
}
