package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"govexec-project/db"
	"govexec-project/models"
)

const (
	proposalKeyPrefix = "proposal:"
	counterKey        = "meta:proposal_count"
	committeeKey      = "meta:committee"
	settingsKey       = "meta:settings"
)

// It abstracts the storage layer from the governance engine
type GovernanceRepositoryInterface interface {
	PutProposal(p *models.Proposal) error
	GetProposal(id uint64) (*models.Proposal, error) // (nil, nil) when absent
	GetAllProposals() ([]*models.Proposal, error)
	PutProposalCount(n uint64) error
	GetProposalCount() (uint64, error)
	PutCommittee(c *models.Committee) error
	GetCommittee() (*models.Committee, error) // (nil, nil) when absent
	PutSettings(rec *models.SettingsRecord) error
	GetSettings() (*models.SettingsRecord, error) // (nil, nil) when absent
}

// GovernanceRepository implements the interface using LevelDB as the storage backend
type GovernanceRepository struct {
	db *db.LevelDB
}

// NewGovernanceRepository creates and returns a new GovernanceRepository instance
func NewGovernanceRepository(db *db.LevelDB) *GovernanceRepository {
	return &GovernanceRepository{db: db}
}

// proposalKey produces zero-padded keys so the prefix iterator yields proposals in ID order
func proposalKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", proposalKeyPrefix, id))
}

// PutProposal stores a proposal record
func (r *GovernanceRepository) PutProposal(p *models.Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.db.Put(proposalKey(p.ID), data)
}

// GetProposal retrieves a proposal by ID, returning nil when it does not exist
func (r *GovernanceRepository) GetProposal(id uint64) (*models.Proposal, error) {
	data, err := r.db.Get(proposalKey(id))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var p models.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllProposals retrieves every stored proposal in ID order
func (r *GovernanceRepository) GetAllProposals() ([]*models.Proposal, error) {
	iter := r.db.NewPrefixIterator([]byte(proposalKeyPrefix))
	defer iter.Release()

	var proposals []*models.Proposal
	for iter.Next() {
		var p models.Proposal
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			return nil, err
		}
		proposals = append(proposals, &p)
	}
	return proposals, iter.Error()
}

// PutProposalCount persists the next-proposal-ID counter
func (r *GovernanceRepository) PutProposalCount(n uint64) error {
	return r.db.Put([]byte(counterKey), []byte(strconv.FormatUint(n, 10)))
}

// GetProposalCount loads the counter, zero when never written
func (r *GovernanceRepository) GetProposalCount() (uint64, error) {
	data, err := r.db.Get([]byte(counterKey))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

// PutCommittee stores the multisig roster
func (r *GovernanceRepository) PutCommittee(c *models.Committee) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(committeeKey), data)
}

// GetCommittee loads the multisig roster, nil when never written
func (r *GovernanceRepository) GetCommittee() (*models.Committee, error) {
	data, err := r.db.Get([]byte(committeeKey))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var c models.Committee
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutSettings stores the governance settings plus its change marker
func (r *GovernanceRepository) PutSettings(rec *models.SettingsRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(settingsKey), data)
}

// GetSettings loads the governance settings, nil when never written
func (r *GovernanceRepository) GetSettings() (*models.SettingsRecord, error) {
	data, err := r.db.Get([]byte(settingsKey))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.SettingsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
