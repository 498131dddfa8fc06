package publisher

import (
	"context"
	"strings"
	"testing"

	"github.com/RobinCoderZhao/robonews/internal/ingest/pipeline"
	"github.com/RobinCoderZhao/robonews/pkg/notify"
)

type captureNotifier struct {
	msgs []notify.Message
}

func (c *captureNotifier) Channel() notify.Channel { return notify.ChannelWebhook }

func (c *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func sampleRun() pipeline.RunOutcome {
	per := []pipeline.Outcome{
		{SourceID: "ieee", Succeeded: true, NewItemCount: 3},
		{SourceID: "mit", Error: "fetch feed: timeout"},
	}
	return pipeline.RunOutcome{Summary: pipeline.Summarize(per), PerSource: per}
}

func TestFormatReport(t *testing.T) {
	report := FormatReport(sampleRun())
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")

	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), report)
	}
	if lines[0] != "✓ ieee            +3 new" {
		t.Fatalf("unexpected success line %q", lines[0])
	}
	if lines[1] != "✗ mit             fetch feed: timeout" {
		t.Fatalf("unexpected failure line %q", lines[1])
	}
	if lines[3] != "Total new posts: 3" {
		t.Fatalf("unexpected total line %q", lines[3])
	}
	if lines[4] != "Failed sources: 1" {
		t.Fatalf("unexpected failed line %q", lines[4])
	}
}

func TestTitle(t *testing.T) {
	if got := Title(sampleRun()); got != "RoboNews: 3 new posts (1/2 sources ok)" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestPublish(t *testing.T) {
	d := notify.NewDispatcher(nil)
	c := &captureNotifier{}
	d.Register(c)
	p := NewPublisher(d, d.Channels())

	if err := p.Publish(context.Background(), sampleRun()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(c.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.msgs))
	}
	if _, ok := c.msgs[0].Data.(pipeline.RunOutcome); !ok {
		t.Fatalf("expected run outcome payload, got %T", c.msgs[0].Data)
	}
}

func TestPublish_Disabled(t *testing.T) {
	var nilPub *Publisher
	if nilPub.Enabled() {
		t.Fatal("nil publisher must be disabled")
	}
	if err := nilPub.Publish(context.Background(), sampleRun()); err != nil {
		t.Fatalf("disabled publish should be a no-op, got %v", err)
	}
	if NewPublisher(notify.NewDispatcher(nil), nil).Enabled() {
		t.Fatal("publisher without channels must be disabled")
	}
}
