package governance_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"govexec-project/governance"
	"govexec-project/models"
)

// Scenario: two members, two approvals, permissive thresholds
func TestExecuteProposal(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	require.NoError(t, env.engine.ExecuteProposal(id))

	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	require.True(t, p.Executed)
	require.Equal(t, 1, env.executor.calls)
	require.Equal(t, id, env.executor.lastID)
}

func TestExecuteProposalTwice(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	require.NoError(t, env.engine.ExecuteProposal(id))

	err := env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrProposalAlreadyExecuted)
	require.Equal(t, 1, env.executor.calls)
}

func TestExecuteProposalWithoutTally(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)

	err := env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrInvalidTally)
}

func TestExecuteProposalExpired(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))

	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	env.clk.SetNow(p.TallyEndDate + 1)

	err = env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrProposalNotInTallyPhase)
}

func TestExecuteProposalNotEnoughApprovals(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))

	err := env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrNotEnoughApprovals)
}

func TestExecuteProposalMinParticipation(t *testing.T) {
	settings := defaultSettings()
	settings.MinParticipation = 500_000 // 50%
	env := newTestEnv(t, settings, m1, m2)

	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	// 499 < ceil(1000 * 0.5) = 500
	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(499, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	err = env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrMinParticipationNotReached)
}

func TestExecuteProposalParticipationCountsAbstain(t *testing.T) {
	settings := defaultSettings()
	settings.MinParticipation = 500_000
	env := newTestEnv(t, settings, m1, m2)

	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	// 100 + 0 + 400 = 500 meets the floor even though only 100 voted yes
	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(100, 0, 400)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	require.NoError(t, env.engine.ExecuteProposal(id))
}

// Scenario: 90% support threshold against an overwhelming no vote
func TestExecuteProposalSupportThresholdNotReached(t *testing.T) {
	settings := defaultSettings()
	settings.SupportThreshold = 900_000
	env := newTestEnv(t, settings, m1, m2)

	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1_000_000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(1, 200_000, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))

	err = env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrSupportThresholdNotReached)
}

func TestExecuteProposalSupportBoundaryIsExclusive(t *testing.T) {
	settings := defaultSettings()
	settings.SupportThreshold = 500_000
	env := newTestEnv(t, settings, m1, m2)

	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	// exactly 50% yes does not clear a 50% threshold
	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(100, 100, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	err = env.engine.ExecuteProposal(id)
	require.ErrorIs(t, err, governance.ErrSupportThresholdNotReached)
}

func TestExecuteProposalAbstainIgnoredForSupport(t *testing.T) {
	settings := defaultSettings()
	settings.SupportThreshold = 500_000
	env := newTestEnv(t, settings, m1, m2)

	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(10_000),
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	// 3 yes vs 2 no passes 50% even with a mountain of abstains
	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(3, 2, 9000)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	require.NoError(t, env.engine.ExecuteProposal(id))
}

func TestApproveTallyTryExecute(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, true))

	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	require.True(t, p.Executed)
	require.Equal(t, []string{m1, m2}, p.Approvers)
	require.Equal(t, 1, env.executor.calls)
}

// Approval and execution attempt form one atomic operation: a failing
// execution precondition rejects the approval as well
func TestApproveTallyTryExecuteAtomic(t *testing.T) {
	settings := defaultSettings()
	settings.MinTallyApprovals = 3
	env := newTestEnv(t, settings, m1, m2, m3)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))

	// two approvals < 3: the execution check fails and takes the approval with it
	err := env.engine.ApproveTally(id, m2, true)
	require.ErrorIs(t, err, governance.ErrNotEnoughApprovals)

	p, getErr := env.engine.GetProposal(id)
	require.NoError(t, getErr)
	require.Equal(t, []string{m1}, p.Approvers)
	require.False(t, p.Executed)
}

func TestExecuteProposalActionsReachSink(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id, err := env.engine.CreateProposal(governance.ProposalParams{
		Creator:          m1,
		TotalVotingPower: big.NewInt(1000),
		AllowFailureMap:  big.NewInt(0b10),
		Actions: []models.Action{
			actionWithValue(outsider, 7),
			actionWithValue(m3, 11),
		},
	})
	require.NoError(t, err)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))
	require.NoError(t, env.engine.ExecuteProposal(id))

	require.Len(t, env.executor.lastActions, 2)
	require.Equal(t, outsider, env.executor.lastActions[0].Target)
	require.Equal(t, int64(11), env.executor.lastActions[1].Value.Int64())
}

func TestExecuteProposalSinkFailureSurfaces(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)
	env.enterTallyPhase(t, id)

	require.NoError(t, env.engine.SetTally(id, m1, tallyRows(10, 0, 0)))
	require.NoError(t, env.engine.ApproveTally(id, m2, false))

	env.executor.err = errors.New("sink down")
	err := env.engine.ExecuteProposal(id)
	require.Error(t, err)

	// executed stays set: the flag flips before the sink runs
	p, getErr := env.engine.GetProposal(id)
	require.NoError(t, getErr)
	require.True(t, p.Executed)
}
