package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"rentcal/internal/app/commands"
	rulesapp "rentcal/internal/app/handlers/rules"
	"rentcal/internal/app/validation"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

// Inbox deduplicates redelivered messages. Claim reports false when the id
// was already claimed; Release gives a claim back after a failed attempt so
// the redelivery is processed.
type Inbox interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ClosureSyncMessage is what external calendar importers publish. A message
// carries either Ranges or a single StartDate/EndDate pair and always
// describes the full current state of one calendar feed.
type ClosureSyncMessage struct {
	ID        string          `json:"id"`
	UnitID    string          `json:"unit_id"`
	Calendar  string          `json:"calendar"`
	Provider  string          `json:"provider"`
	StartDate *daterange.Date `json:"start_date,omitempty"`
	EndDate   *daterange.Date `json:"end_date,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	Ranges    []messageRange  `json:"ranges,omitempty"`
}

type messageRange struct {
	StartDate daterange.Date `json:"start_date"`
	EndDate   daterange.Date `json:"end_date"`
	Summary   string         `json:"summary"`
}

// ClosureSyncHandler turns closure sync messages into closures.sync_external commands.
type ClosureSyncHandler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

func (h *ClosureSyncHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var body ClosureSyncMessage
	if err := json.Unmarshal(msg.Value, &body); err != nil {
		return fmt.Errorf("%w: decode closure sync: %v", ErrPermanent, err)
	}
	cmd, err := body.Command()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	id := messageID(msg, body.ID)
	if h.Inbox != nil {
		first, err := h.Inbox.Claim(ctx, id)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}
	res, err := commands.Dispatch[rulesapp.SyncExternalClosuresCommand, *rulesapp.SyncExternalResult](ctx, h.Bus, cmd)
	if err != nil {
		if errors.Is(err, units.ErrNotFound) || errors.Is(err, validation.ErrInvalid) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		if h.Inbox != nil {
			if relErr := h.Inbox.Release(context.WithoutCancel(ctx), id); relErr != nil {
				return errors.Join(err, relErr)
			}
		}
		return err
	}
	if h.Logger != nil && res != nil {
		h.Logger.InfoContext(ctx, "external closures synced",
			slog.String("unit_id", cmd.UnitID), slog.String("calendar", cmd.Calendar),
			slog.Int("removed", res.Removed), slog.Int("added", res.Added), slog.Int("skipped", res.Skipped))
	}
	return nil
}

// Command validates the message and builds the sync command.
func (m ClosureSyncMessage) Command() (rulesapp.SyncExternalClosuresCommand, error) {
	cmd := rulesapp.SyncExternalClosuresCommand{
		UnitID:   strings.TrimSpace(m.UnitID),
		Calendar: strings.TrimSpace(m.Calendar),
	}
	if cmd.UnitID == "" {
		return cmd, errors.New("closure sync: unit_id required")
	}
	if cmd.Calendar == "" {
		cmd.Calendar = "external"
	}
	for _, r := range m.Ranges {
		cmd.Ranges = append(cmd.Ranges, rulesapp.ExternalRange{StartDate: r.StartDate, EndDate: r.EndDate, Summary: r.Summary})
	}
	if m.StartDate != nil && m.EndDate != nil {
		cmd.Ranges = append(cmd.Ranges, rulesapp.ExternalRange{StartDate: *m.StartDate, EndDate: *m.EndDate, Summary: m.Summary})
	}
	cmd.Provider = providerLabel(m)
	return cmd, nil
}

// providerLabel normalizes well-known names and otherwise keeps what the
// importer sent, falling back to whatever the summaries reveal.
func providerLabel(m ClosureSyncMessage) string {
	if name := strings.TrimSpace(m.Provider); name != "" {
		if p := availability.ExtractProvider(name); p != availability.ProviderOTA {
			return string(p)
		}
		return name
	}
	hints := []string{m.Calendar, m.Summary}
	for _, r := range m.Ranges {
		hints = append(hints, r.Summary)
	}
	return string(availability.ExtractProvider(strings.Join(hints, " ")))
}

func messageID(msg *sarama.ConsumerMessage, bodyID string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == "ce-id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	if bodyID != "" {
		return bodyID
	}
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

var _ MessageHandler = (*ClosureSyncHandler)(nil)
