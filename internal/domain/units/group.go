package units

import (
	"context"
	"strings"
)

type GroupID string

// Group is a named set of units that may be combined into one reservation.
type Group struct {
	ID      GroupID
	Name    string
	UnitIDs []UnitID
	Active  bool
}

type GroupRepository interface {
	ByID(ctx context.Context, id GroupID) (*Group, error)
	List(ctx context.Context) ([]*Group, error)
	Save(ctx context.Context, group *Group) error
}

func NewGroup(id GroupID, name string, members []UnitID) (*Group, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrGroupNameMissing
	}
	seen := make(map[UnitID]struct{}, len(members))
	ids := make([]UnitID, 0, len(members))
	for _, m := range members {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	return &Group{ID: id, Name: strings.TrimSpace(name), UnitIDs: ids, Active: true}, nil
}

func (g *Group) Has(id UnitID) bool {
	for _, m := range g.UnitIDs {
		if m == id {
			return true
		}
	}
	return false
}
