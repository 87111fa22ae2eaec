package entity

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// SchedulingType decides how the hosts of a team event share a slot.
type SchedulingType string

const (
	SchedulingCollective SchedulingType = "collective"
	SchedulingRoundRobin SchedulingType = "round-robin"
)

func ParseSchedulingType(s string) (SchedulingType, error) {
	switch t := SchedulingType(s); t {
	case SchedulingCollective, SchedulingRoundRobin:
		return t, nil
	case "":
		return SchedulingCollective, nil
	}
	return "", fmt.Errorf("unknown scheduling type %q", s)
}

// Host is a member of an event type's team.
type Host struct {
	ID       uuid.UUID `db:"user_id" json:"id"`
	IsFixed  bool      `db:"is_fixed" json:"is_fixed"`
	Priority int       `db:"priority" json:"priority"`
	Weight   float64   `db:"weight" json:"weight"`
	Timezone string    `db:"timezone" json:"timezone"`
}

// SortIDs orders host ids ascending by their string form.
func SortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, CompareIDs)
}

func CompareIDs(a, b uuid.UUID) int {
	switch sa, sb := a.String(), b.String(); {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

// SortHosts orders hosts by id.
func SortHosts(hosts []Host) {
	slices.SortFunc(hosts, func(a, b Host) int { return CompareIDs(a.ID, b.ID) })
}
