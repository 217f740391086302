package sim

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out sequential IDs. Sequential IDs keep the event log of
// two runs with the same configuration identical, which random IDs would not.
type IDGenerator struct {
	last atomic.Uint64
}

// Generate returns the next ID, starting at "1".
func (g *IDGenerator) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

var ids IDGenerator

// NextID returns the next process-wide ID.
func NextID() string {
	return ids.Generate()
}
