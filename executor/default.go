package executor

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"govexec-project/logger"
	"govexec-project/models"
)

// Executor is the default action-execution sink. It dispatches each action to
// a registered target handler; unknown targets are logged and treated as
// successful no-ops so the service can run standalone.
type Executor struct {
	handlers map[string]ActionHandler
}

// ActionHandler runs a single proposal action and returns its result payload
type ActionHandler func(action models.Action) ([]byte, error)

// NewExecutor creates a new executor
func NewExecutor() *Executor {
	return &Executor{handlers: make(map[string]ActionHandler)}
}

// RegisterHandler binds a target address to a handler
func (e *Executor) RegisterHandler(target string, h ActionHandler) {
	e.handlers[target] = h
}

// Execute runs the action list. A failed action whose bit is set in
// allowFailureMap is tolerated and reported in the returned failure map;
// a failure outside the map aborts the whole execution.
func (e *Executor) Execute(proposalID uint64, actions []models.Action, allowFailureMap *big.Int) ([][]byte, *big.Int, error) {
	results := make([][]byte, 0, len(actions))
	failureMap := new(big.Int)

	for i, action := range actions {
		result, err := e.runAction(action)
		if err != nil {
			if allowFailureMap.Bit(i) == 0 {
				return nil, nil, fmt.Errorf("action %d failed: %w", i, err)
			}
			logger.Logger.Warn("tolerated action failure",
				zap.Uint64("proposal_id", proposalID),
				zap.Int("action_index", i),
				zap.String("target", action.Target),
				zap.Error(err))
			failureMap.SetBit(failureMap, i, 1)
			results = append(results, nil)
			continue
		}
		results = append(results, result)
	}

	logger.Logger.Info("executed proposal actions",
		zap.Uint64("proposal_id", proposalID),
		zap.Int("actions", len(actions)),
		zap.String("failure_map", failureMap.String()))
	return results, failureMap, nil
}

func (e *Executor) runAction(action models.Action) ([]byte, error) {
	if h, ok := e.handlers[action.Target]; ok {
		return h(action)
	}
	logger.Logger.Debug("no handler for action target, skipping",
		zap.String("target", action.Target))
	return nil, nil
}
