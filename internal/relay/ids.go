package relay

import (
	"sync/atomic"
	"time"
)

// idSource hands out strictly increasing message ids. Seeding from the clock
// keeps ids roughly timestamp-shaped while ruling out collisions under rapid
// sends within a process lifetime.
type idSource struct {
	last atomic.Int64
}

func newIDSource() *idSource {
	s := &idSource{}
	s.last.Store(time.Now().UnixMilli())
	return s
}

func (s *idSource) next() int64 {
	return s.last.Add(1)
}
