package governance_test

import (
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"govexec-project/clock"
	"govexec-project/governance"
	"govexec-project/logger"
	"govexec-project/models"
)

const (
	m1       = "0xaa01"
	m2       = "0xaa02"
	m3       = "0xaa03"
	outsider = "0xbb01"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

// mockRepo is an in-memory governance repository
type mockRepo struct {
	proposals map[uint64]*models.Proposal
	count     uint64
	committee *models.Committee
	settings  *models.SettingsRecord
	failPuts  bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{proposals: make(map[uint64]*models.Proposal)}
}

type putError struct{}

func (putError) Error() string { return "put failed" }

func (m *mockRepo) PutProposal(p *models.Proposal) error {
	if m.failPuts {
		return putError{}
	}
	m.proposals[p.ID] = p.Copy()
	return nil
}

func (m *mockRepo) GetProposal(id uint64) (*models.Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, nil
	}
	return p.Copy(), nil
}

func (m *mockRepo) GetAllProposals() ([]*models.Proposal, error) {
	out := make([]*models.Proposal, 0, len(m.proposals))
	for id := uint64(0); id < m.count; id++ {
		if p, ok := m.proposals[id]; ok {
			out = append(out, p.Copy())
		}
	}
	return out, nil
}

func (m *mockRepo) PutProposalCount(n uint64) error {
	if m.failPuts {
		return putError{}
	}
	m.count = n
	return nil
}

func (m *mockRepo) GetProposalCount() (uint64, error) { return m.count, nil }

func (m *mockRepo) PutCommittee(c *models.Committee) error {
	if m.failPuts {
		return putError{}
	}
	m.committee = c.Copy()
	return nil
}

func (m *mockRepo) GetCommittee() (*models.Committee, error) {
	return m.committee.Copy(), nil
}

func (m *mockRepo) PutSettings(rec *models.SettingsRecord) error {
	if m.failPuts {
		return putError{}
	}
	m.settings = &models.SettingsRecord{Settings: rec.Settings.Copy(), LastChangedTick: rec.LastChangedTick}
	return nil
}

func (m *mockRepo) GetSettings() (*models.SettingsRecord, error) {
	if m.settings == nil {
		return nil, nil
	}
	return &models.SettingsRecord{Settings: m.settings.Settings.Copy(), LastChangedTick: m.settings.LastChangedTick}, nil
}

// mockExecutor records execution-sink calls
type mockExecutor struct {
	calls       int
	lastID      uint64
	lastActions []models.Action
	err         error
}

func (m *mockExecutor) Execute(id uint64, actions []models.Action, allowFailureMap *big.Int) ([][]byte, *big.Int, error) {
	m.calls++
	m.lastID = id
	m.lastActions = actions
	if m.err != nil {
		return nil, nil, m.err
	}
	return make([][]byte, len(actions)), new(big.Int), nil
}

// mockOracle serves fixed voting power values
type mockOracle struct {
	votes    map[string]*big.Int
	balances map[string]*big.Int
}

func (m *mockOracle) GetVotes(addr string) (*big.Int, error) {
	if v, ok := m.votes[addr]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (m *mockOracle) BalanceOf(addr string) (*big.Int, error) {
	if v, ok := m.balances[addr]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func defaultSettings() *models.Settings {
	return &models.Settings{
		OnlyCommitteeCanPropose: true,
		MinTallyApprovals:       2,
		MinParticipation:        0,
		SupportThreshold:        0,
		MinVoteDuration:         3600,
		MinTallyDuration:        3600,
		MinProposerVotingPower:  new(big.Int),
		RequireTotalPower:       true,
	}
}

type testEnv struct {
	engine   *governance.Engine
	clk      *clock.Manual
	repo     *mockRepo
	executor *mockExecutor
	oracle   *mockOracle
}

// newTestEnv seeds the engine at tick 5 and hands back tick 6 so the seeding
// itself does not trip the too-recently guards
func newTestEnv(t *testing.T, settings *models.Settings, members ...string) *testEnv {
	t.Helper()
	if settings == nil {
		settings = defaultSettings()
	}
	if len(members) == 0 {
		members = []string{m1, m2}
	}
	clk := clock.NewManual(5, 1_000_000)
	repo := newMockRepo()
	exec := &mockExecutor{}
	orc := &mockOracle{votes: map[string]*big.Int{}, balances: map[string]*big.Int{}}

	engine, err := governance.NewEngine(repo, clk, exec, members, settings, governance.Options{Oracle: orc})
	require.NoError(t, err)
	clk.SetTick(6)
	return &testEnv{engine: engine, clk: clk, repo: repo, executor: exec, oracle: orc}
}

// createProposal makes a proposal with auto-derived dates and the given total power
func (env *testEnv) createProposal(t *testing.T, creator string) uint64 {
	t.Helper()
	id, err := env.engine.CreateProposal(governance.ProposalParams{
		ExternalID:       "0x1234",
		Creator:          creator,
		TotalVotingPower: big.NewInt(1000),
	})
	require.NoError(t, err)
	return id
}

// enterTallyPhase moves the manual clock into [voteEndDate, tallyEndDate)
func (env *testEnv) enterTallyPhase(t *testing.T, id uint64) {
	t.Helper()
	p, err := env.engine.GetProposal(id)
	require.NoError(t, err)
	env.clk.SetNow(p.VoteEndDate)
}

func tallyRows(yes, no, abstain int64) [][]*big.Int {
	return [][]*big.Int{{big.NewInt(yes), big.NewInt(no), big.NewInt(abstain)}}
}

func actionWithValue(target string, value int64) models.Action {
	return models.Action{Target: target, Value: big.NewInt(value), Payload: []byte{0x01}}
}

func TestEngineRestoresPersistedState(t *testing.T) {
	env := newTestEnv(t, nil, m1, m2)
	id := env.createProposal(t, m1)

	// a second engine over the same repository sees the same state
	engine2, err := governance.NewEngine(env.repo, env.clk, env.executor, nil, nil, governance.Options{})
	require.NoError(t, err)
	require.Equal(t, uint64(1), engine2.ProposalCount())
	require.True(t, engine2.IsMember(m1))
	require.Equal(t, uint16(2), engine2.GetSettings().MinTallyApprovals)

	p, err := engine2.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, m1, p.Creator)
}

func TestEngineSeedValidation(t *testing.T) {
	clk := clock.NewManual(0, 0)

	_, err := governance.NewEngine(newMockRepo(), clk, &mockExecutor{}, nil, defaultSettings(), governance.Options{})
	require.ErrorIs(t, err, governance.ErrEmptyInput)

	// roster below the approval floor is rejected at seed time too
	_, err = governance.NewEngine(newMockRepo(), clk, &mockExecutor{}, []string{m1}, defaultSettings(), governance.Options{})
	require.ErrorIs(t, err, governance.ErrBelowMinApprovals)
}
