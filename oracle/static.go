package oracle

import (
	"math/big"
	"strings"
)

// StaticOracle is a config-backed voting-power oracle for standalone
// deployments. Unknown addresses report zero power.
type StaticOracle struct {
	votes    map[string]*big.Int
	balances map[string]*big.Int
}

// NewStaticOracle builds an oracle from decimal-string power maps, as read
// from configuration. Unparseable entries are skipped.
func NewStaticOracle(votes, balances map[string]string) *StaticOracle {
	return &StaticOracle{
		votes:    parsePowerMap(votes),
		balances: parsePowerMap(balances),
	}
}

func parsePowerMap(in map[string]string) map[string]*big.Int {
	out := make(map[string]*big.Int, len(in))
	for addr, raw := range in {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			continue
		}
		out[strings.ToLower(addr)] = v
	}
	return out
}

// GetVotes returns the delegated voting power of an address
func (o *StaticOracle) GetVotes(address string) (*big.Int, error) {
	if v, ok := o.votes[strings.ToLower(address)]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

// BalanceOf returns the raw token balance of an address
func (o *StaticOracle) BalanceOf(address string) (*big.Int, error) {
	if v, ok := o.balances[strings.ToLower(address)]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}
