package service

import (
	"math"
	"math/rand/v2"

	"smart-schedule/modules/host/entity"

	"github.com/google/uuid"
)

// QualifyRequest describes one candidate instant.
type QualifyRequest struct {
	Type  entity.SchedulingType
	Hosts []entity.Host
	// Free holds the hosts with no conflict at the instant.
	Free map[uuid.UUID]bool
	// PreviousHostID is set when rescheduling.
	PreviousHostID *uuid.UUID
}

// Qualifier picks the hosts that may take a slot. It keeps per-computation
// assignment counts, so one Qualifier serves exactly one request and must be
// fed slots in a deterministic order.
type Qualifier struct {
	rnd         *rand.Rand
	assignments map[uuid.UUID]int
}

func NewQualifier(seed uint64) *Qualifier {
	return &Qualifier{
		rnd:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		assignments: make(map[uuid.UUID]int),
	}
}

// Assignments returns how many slots each host received as the round-robin pick.
func (q *Qualifier) Assignments() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(q.assignments))
	for id, n := range q.assignments {
		out[id] = n
	}
	return out
}

// Qualify returns the qualifying host ids sorted ascending, or nil when the
// instant must not be offered. On a reschedule a free previous host replaces
// the round-robin pick for that slot; it is not added next to it.
func (q *Qualifier) Qualify(req QualifyRequest) []uuid.UUID {
	if len(req.Hosts) == 0 {
		return nil
	}

	if req.Type != entity.SchedulingRoundRobin {
		ids := make([]uuid.UUID, 0, len(req.Hosts))
		for _, h := range req.Hosts {
			if !req.Free[h.ID] {
				return nil
			}
			ids = append(ids, h.ID)
		}
		entity.SortIDs(ids)
		return ids
	}

	var ids []uuid.UUID
	var candidates []entity.Host
	var previous *entity.Host
	for k := range req.Hosts {
		h := req.Hosts[k]
		if !req.Free[h.ID] {
			continue
		}
		if h.IsFixed {
			ids = append(ids, h.ID)
			continue
		}
		candidates = append(candidates, h)
		if req.PreviousHostID != nil && *req.PreviousHostID == h.ID {
			previous = &req.Hosts[k]
		}
	}

	switch {
	case previous != nil:
		q.assignments[previous.ID]++
		ids = append(ids, previous.ID)
	case len(candidates) > 0:
		lucky := q.pick(candidates)
		q.assignments[lucky.ID]++
		ids = append(ids, lucky.ID)
	}

	if len(ids) == 0 {
		return nil
	}
	entity.SortIDs(ids)
	return ids
}

// pick selects the host furthest below its weighted share. Ties go to the
// higher priority, then to fewer assignments, then to a weighted draw.
func (q *Qualifier) pick(candidates []entity.Host) entity.Host {
	best := []entity.Host{candidates[0]}
	for _, h := range candidates[1:] {
		if c := q.compare(h, best[0]); c < 0 {
			best = []entity.Host{h}
		} else if c == 0 {
			best = append(best, h)
		}
	}
	if len(best) == 1 {
		return best[0]
	}
	return q.draw(best)
}

// compare returns a negative number when a should be preferred over b.
func (q *Qualifier) compare(a, b entity.Host) int {
	la, lb := q.load(a), q.load(b)
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	}
	switch {
	case a.Priority > b.Priority:
		return -1
	case a.Priority < b.Priority:
		return 1
	}
	return q.assignments[a.ID] - q.assignments[b.ID]
}

func (q *Qualifier) load(h entity.Host) float64 {
	if h.Weight <= 0 {
		return math.Inf(1)
	}
	return float64(q.assignments[h.ID]) / h.Weight
}

func (q *Qualifier) draw(hosts []entity.Host) entity.Host {
	entity.SortHosts(hosts)

	var total float64
	for _, h := range hosts {
		total += math.Max(h.Weight, 0)
	}
	if total <= 0 {
		return hosts[q.rnd.IntN(len(hosts))]
	}

	target := q.rnd.Float64() * total
	for _, h := range hosts {
		w := math.Max(h.Weight, 0)
		if target < w {
			return h
		}
		target -= w
	}
	return hosts[len(hosts)-1]
}
