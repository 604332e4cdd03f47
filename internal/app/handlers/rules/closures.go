package rules

import (
	"context"
	"strings"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/outbox"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const (
	createClosureKey = "rules.closure.create"
	syncExternalKey  = "closures.sync_external"
)

// CreateClosureCommand blocks [StartDate, EndDate) for a unit.
type CreateClosureCommand struct {
	UnitID          string         `json:"unit_id" validate:"required"`
	StartDate       daterange.Date `json:"start_date" validate:"required"`
	EndDate         daterange.Date `json:"end_date" validate:"required"`
	Reason          string         `json:"reason" validate:"max=500"`
	IsExternal      bool           `json:"is_external_booking"`
	Calendar        string         `json:"calendar" validate:"max=100"`
	IdempotencyKeyV string         `json:"-"`
}

func (c CreateClosureCommand) Key() string { return createClosureKey }

func (c CreateClosureCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateClosureCommand) ResultPrototype() any { return &dto.ClosureRule{} }

func (c CreateClosureCommand) Check() error {
	if !c.EndDate.After(c.StartDate) {
		return domainrules.ErrEmptyClosure
	}
	return nil
}

type CreateClosureHandler struct {
	handlersupport.CommandDeps
}

func (h *CreateClosureHandler) Handle(ctx context.Context, cmd CreateClosureCommand) (*dto.ClosureRule, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	closure, err := domainrules.NewClosure(domainrules.NewClosureParams{
		ID:       domainrules.RuleID(h.ID()),
		UnitID:   u.ID,
		Start:    cmd.StartDate,
		End:      cmd.EndDate,
		Reason:   cmd.Reason,
		External: cmd.IsExternal,
		Calendar: cmd.Calendar,
		Now:      h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Closures().Save(ctx, closure); err != nil {
		return nil, err
	}
	if err := h.Record(ctx, closure); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	out := dto.MapClosure(closure)
	return &out, nil
}

// ExternalRange is one occupied range reported by an external calendar.
type ExternalRange struct {
	StartDate daterange.Date `json:"start_date" validate:"required"`
	EndDate   daterange.Date `json:"end_date" validate:"required"`
	Summary   string         `json:"summary"`
}

// SyncExternalClosuresCommand replaces every external closure a calendar feed
// produced for a unit with the ranges it currently reports.
type SyncExternalClosuresCommand struct {
	UnitID   string          `json:"unit_id" validate:"required"`
	Calendar string          `json:"calendar" validate:"required,max=100"`
	Provider string          `json:"provider" validate:"max=100"`
	Ranges   []ExternalRange `json:"ranges" validate:"dive"`
}

func (c SyncExternalClosuresCommand) Key() string { return syncExternalKey }

type SyncExternalResult struct {
	Removed int `json:"removed"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type SyncExternalClosuresHandler struct {
	handlersupport.CommandDeps
}

// Handle skips ranges that are empty or inverted instead of failing the sync.
func (h *SyncExternalClosuresHandler) Handle(ctx context.Context, cmd SyncExternalClosuresCommand) (*SyncExternalResult, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	calendar := strings.TrimSpace(cmd.Calendar)
	removed, err := unit.Closures().DeleteExternal(ctx, u.ID, calendar)
	if err != nil {
		return nil, err
	}
	reason := domainrules.SyncedReason(calendar, cmd.Provider)
	now := h.Clock.Time()
	res := &SyncExternalResult{Removed: removed}
	for _, r := range cmd.Ranges {
		closure, err := domainrules.NewClosure(domainrules.NewClosureParams{
			ID:       domainrules.RuleID(h.ID()),
			UnitID:   u.ID,
			Start:    r.StartDate,
			End:      r.EndDate,
			Reason:   reason,
			External: true,
			Calendar: calendar,
			Now:      now,
		})
		if err != nil {
			res.Skipped++
			continue
		}
		closure.ClearEvents()
		if err := unit.Closures().Save(ctx, closure); err != nil {
			return nil, err
		}
		res.Added++
	}
	batch := &eventBatch{}
	batch.Record(domainrules.ExternalClosuresSyncedEvent{
		UnitID: u.ID, Calendar: calendar, Provider: cmd.Provider,
		Removed: res.Removed, Added: res.Added, At: now,
	})
	if err := h.Record(ctx, batch); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return res, nil
}

var (
	_ commands.Handler[CreateClosureCommand, *dto.ClosureRule]           = (*CreateClosureHandler)(nil)
	_ commands.Handler[SyncExternalClosuresCommand, *SyncExternalResult] = (*SyncExternalClosuresHandler)(nil)
	_ outbox.Source                                                      = (*eventBatch)(nil)
)
