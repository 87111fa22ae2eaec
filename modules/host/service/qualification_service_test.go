package service

import (
	"testing"

	"smart-schedule/modules/host/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostsWithWeights(weights ...float64) []entity.Host {
	hosts := make([]entity.Host, len(weights))
	for k, w := range weights {
		hosts[k] = entity.Host{ID: uuid.New(), Weight: w}
	}
	return hosts
}

func allFree(hosts []entity.Host) map[uuid.UUID]bool {
	free := make(map[uuid.UUID]bool, len(hosts))
	for _, h := range hosts {
		free[h.ID] = true
	}
	return free
}

func TestQualifyCollective(t *testing.T) {
	hosts := hostsWithWeights(1, 1, 1)
	q := NewQualifier(1)

	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingCollective, Hosts: hosts, Free: allFree(hosts)})
	require.Len(t, ids, 3)
	for k := 1; k < len(ids); k++ {
		assert.Less(t, ids[k-1].String(), ids[k].String())
	}

	free := allFree(hosts)
	free[hosts[1].ID] = false
	assert.Nil(t, q.Qualify(QualifyRequest{Type: entity.SchedulingCollective, Hosts: hosts, Free: free}))
}

func TestQualifyRoundRobinIncludesFreeFixedHosts(t *testing.T) {
	hosts := hostsWithWeights(1, 1, 1)
	hosts[0].IsFixed = true
	q := NewQualifier(1)

	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})
	require.Len(t, ids, 2)
	assert.Contains(t, ids, hosts[0].ID)

	// Only the fixed host is free.
	ids = q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: map[uuid.UUID]bool{hosts[0].ID: true}})
	assert.Equal(t, []uuid.UUID{hosts[0].ID}, ids)

	// Nobody is free.
	assert.Nil(t, q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: map[uuid.UUID]bool{}}))
}

func TestQualifyPriorityBreaksTies(t *testing.T) {
	hosts := hostsWithWeights(1, 1)
	hosts[1].Priority = 5
	q := NewQualifier(7)

	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})
	assert.Equal(t, []uuid.UUID{hosts[1].ID}, ids)

	// The high priority host is now ahead on load, so the other one follows.
	ids = q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})
	assert.Equal(t, []uuid.UUID{hosts[0].ID}, ids)
}

func TestQualifyPreviousHostContinuity(t *testing.T) {
	hosts := hostsWithWeights(10, 0.1)
	previous := hosts[1].ID
	q := NewQualifier(3)

	for range 5 {
		ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts), PreviousHostID: &previous})
		assert.Equal(t, []uuid.UUID{previous}, ids)
	}

	// Not free: fairness decides again.
	free := allFree(hosts)
	free[previous] = false
	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: free, PreviousHostID: &previous})
	assert.Equal(t, []uuid.UUID{hosts[0].ID}, ids)

	// Not a team member: ignored.
	stranger := uuid.New()
	ids = q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts), PreviousHostID: &stranger})
	require.Len(t, ids, 1)
	assert.NotEqual(t, stranger, ids[0])
}

func TestQualifyPreviousHostReplacesRoundRobinPick(t *testing.T) {
	hosts := hostsWithWeights(1, 1, 1)
	hosts[0].IsFixed = true
	previous := hosts[2].ID
	q := NewQualifier(9)

	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts), PreviousHostID: &previous})
	want := []uuid.UUID{hosts[0].ID, previous}
	entity.SortIDs(want)
	assert.Equal(t, want, ids)
	assert.Equal(t, map[uuid.UUID]int{previous: 1}, q.Assignments())
}

func TestQualifyFairnessConvergence(t *testing.T) {
	hosts := hostsWithWeights(2, 1, 1)
	q := NewQualifier(42)
	const n = 10000

	counts := make(map[uuid.UUID]int)
	for range n {
		ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})
		require.Len(t, ids, 1)
		counts[ids[0]]++
	}

	assert.InDelta(t, 0.50, float64(counts[hosts[0].ID])/n, 0.02)
	assert.InDelta(t, 0.25, float64(counts[hosts[1].ID])/n, 0.02)
	assert.InDelta(t, 0.25, float64(counts[hosts[2].ID])/n, 0.02)
	assert.Equal(t, counts, q.Assignments())
}

func TestQualifyIsReproducibleForASeed(t *testing.T) {
	hosts := hostsWithWeights(1, 1, 1, 1)

	run := func(seed uint64) []uuid.UUID {
		q := NewQualifier(seed)
		var picks []uuid.UUID
		for range 50 {
			picks = append(picks, q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})...)
		}
		return picks
	}

	assert.Equal(t, run(99), run(99))
}

func TestQualifyZeroWeightHostsOnlyWhenAlone(t *testing.T) {
	hosts := hostsWithWeights(0, 1)
	q := NewQualifier(1)

	for range 10 {
		ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: allFree(hosts)})
		assert.Equal(t, []uuid.UUID{hosts[1].ID}, ids)
	}

	ids := q.Qualify(QualifyRequest{Type: entity.SchedulingRoundRobin, Hosts: hosts, Free: map[uuid.UUID]bool{hosts[0].ID: true}})
	assert.Equal(t, []uuid.UUID{hosts[0].ID}, ids)
}
