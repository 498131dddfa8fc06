// Package publisher formats ingestion run reports and distributes them.
package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
	"github.com/RobinCoderZhao/robonews/pkg/notify"
)

const idWidth = 15

// Publisher sends run reports via notification channels.
type Publisher struct {
	dispatcher *notify.Dispatcher
	channels   []notify.Channel
}

// NewPublisher creates a new publisher with the given dispatcher and target channels.
func NewPublisher(dispatcher *notify.Dispatcher, channels []notify.Channel) *Publisher {
	return &Publisher{
		dispatcher: dispatcher,
		channels:   channels,
	}
}

// Enabled reports whether any channel is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.dispatcher != nil && len(p.channels) > 0
}

// Publish sends the report of run. The structured outcome travels in
// Message.Data for webhook consumers.
func (p *Publisher) Publish(ctx context.Context, run pipeline.RunOutcome) error {
	if !p.Enabled() {
		return nil
	}
	msg := notify.Message{
		Title:  Title(run),
		Body:   FormatReport(run),
		Format: "plain",
		Data:   run,
	}
	return p.dispatcher.Dispatch(ctx, p.channels, msg)
}

// Title is a one-line headline for run.
func Title(run pipeline.RunOutcome) string {
	return fmt.Sprintf("RoboNews: %d new posts (%d/%d sources ok)",
		run.TotalNewItems, run.SourcesSucceeded, run.SourcesSucceeded+run.SourcesFailed)
}

// FormatReport renders one line per source followed by the total:
//
//	✓ ieee            +3 new
//	✗ mit             fetch feed: timeout
//	────────────────────────────────────────
//	Total new posts: 3
func FormatReport(run pipeline.RunOutcome) string {
	var sb strings.Builder

	for _, o := range run.PerSource {
		if o.Succeeded {
			sb.WriteString(fmt.Sprintf("✓ %-*s +%d new\n", idWidth, o.SourceID, o.NewItemCount))
		} else {
			sb.WriteString(fmt.Sprintf("✗ %-*s %s\n", idWidth, o.SourceID, o.Error))
		}
	}

	sb.WriteString(strings.Repeat("─", 40))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total new posts: %d\n", run.TotalNewItems))
	if run.SourcesFailed > 0 {
		sb.WriteString(fmt.Sprintf("Failed sources: %d\n", run.SourcesFailed))
	}
	return sb.String()
}
