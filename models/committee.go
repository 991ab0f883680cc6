package models

// Committee is the execution multisig roster: an ordered set of unique addresses
// plus the tick of the last membership change
type Committee struct {
	Members         []string `json:"members"`
	LastChangedTick uint64   `json:"last_changed_tick"`
}

// IsMember reports whether addr belongs to the roster
func (c *Committee) IsMember(addr string) bool {
	for _, m := range c.Members {
		if m == addr {
			return true
		}
	}
	return false
}

// Size returns the roster size
func (c *Committee) Size() int {
	return len(c.Members)
}

// Copy returns a deep copy of the roster
func (c *Committee) Copy() *Committee {
	if c == nil {
		return nil
	}
	return &Committee{
		Members:         append([]string(nil), c.Members...),
		LastChangedTick: c.LastChangedTick,
	}
}
