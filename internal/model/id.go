package model

import (
	"strconv"
	"sync"
	"time"
)

// IDPrefix is the prefix of locally assigned container ids.
const IDPrefix = "container_"

// IDGenerator выдаёт идентификаторы вида container_<unix millis>.
// Значения строго возрастают в пределах процесса, даже если часы стоят на месте.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Next returns the id for a container created at now.
func (g *IDGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return IDPrefix + strconv.FormatInt(ms, 10)
}
