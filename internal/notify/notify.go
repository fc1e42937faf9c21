// Package notify raises alerts for high-impact events.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"layoff-watch/tracker/internal/models"
)

// DefaultThreshold is the affected headcount at which an event is alerted on.
const DefaultThreshold = 1000

// Sender delivers a formatted alert to an external channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to a single alert.
type Outcome struct {
	EventID string
	Text    string
	Status  Status
	Err     error
}

// Notifier selects high-impact events and dispatches alerts for them.
type Notifier struct {
	sender    Sender
	threshold int
	log       zerolog.Logger
}

// New creates a notifier. A nil sender disables dispatch; alerts are still
// logged. threshold <= 0 uses DefaultThreshold.
func New(sender Sender, threshold int, logger zerolog.Logger) *Notifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Notifier{sender: sender, threshold: threshold, log: logger}
}

// Format renders the alert text for ev.
func Format(ev models.Event) string {
	return fmt.Sprintf("[High] %s %s %s 影響人数=%d\n%s",
		ev.Date, ev.Company, ev.EventType, ev.HeadcountAffected, ev.FirstSourceURL())
}

// Notify alerts on every event whose headcount meets the threshold. Dispatch
// errors are logged and reported in the outcome, never returned.
func (n *Notifier) Notify(ctx context.Context, events []models.Event) []Outcome {
	var outcomes []Outcome
	for _, ev := range events {
		if ev.HeadcountAffected < n.threshold {
			continue
		}

		text := Format(ev)
		n.log.Info().
			Str("company", ev.Company).
			Int("headcount", ev.HeadcountAffected).
			Msg("alert_high")

		out := Outcome{EventID: ev.ID, Text: text, Status: StatusSkipped}
		if n.sender != nil {
			if err := n.sender.Send(ctx, text); err != nil {
				n.log.Warn().Err(err).Str("id", ev.ID).Msg("alert_dispatch_failed")
				out.Status = StatusFailed
				out.Err = err
			} else {
				out.Status = StatusSent
			}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}
