// Package notifier delivers formatted alerts to push gateways.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobalert/internal/message"
	"github.com/amishk599/jobalert/internal/model"
	"github.com/amishk599/jobalert/internal/retry"
)

// DefaultTarget labels the single delivery made when no device is configured.
const DefaultTarget = "default"

// DeviceTargeter is implemented by gateways that can address individual devices.
// Other gateways receive one delivery per dispatch.
type DeviceTargeter interface {
	TargetsDevices() bool
}

// MessageLimiter is implemented by gateways with a maximum body length in runes.
type MessageLimiter interface {
	MessageLimit() int
}

// Report summarizes one Dispatch call by target label.
type Report struct {
	Attempted []string
	Delivered []string
	Failed    []string
}

// OK reports whether every attempted target received the alert.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Dispatcher fans an alert out to every target, retrying each send
// independently according to its policy.
type Dispatcher struct {
	gateway  model.Gateway
	policy   retry.Policy
	priority int
	logger   *slog.Logger
}

// NewDispatcher returns a dispatcher sending through gateway.
func NewDispatcher(gateway model.Gateway, policy retry.Policy, priority int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:  gateway,
		policy:   policy,
		priority: priority,
		logger:   logger,
	}
}

// Dispatch sends body for term to each device, or once to the gateway default
// when devices is empty. Failures are logged and reported, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, term model.SearchTerm, devices []string, body string) Report {
	var report Report
	if body == "" {
		return report
	}

	limit := 0
	if l, ok := d.gateway.(MessageLimiter); ok {
		limit = l.MessageLimit()
	}
	parts := message.Split(body, limit)
	title := message.Title(term)

	for _, device := range d.targets(devices) {
		label := device
		if label == "" {
			label = DefaultTarget
		}
		report.Attempted = append(report.Attempted, label)

		if d.deliver(ctx, term, label, title, device, parts) {
			report.Delivered = append(report.Delivered, label)
		} else {
			report.Failed = append(report.Failed, label)
		}
	}

	d.logger.Info("dispatch complete",
		"term", term,
		"targets", len(report.Attempted),
		"delivered", len(report.Delivered),
		"failed", len(report.Failed),
	)
	return report
}

func (d *Dispatcher) targets(devices []string) []string {
	t, ok := d.gateway.(DeviceTargeter)
	if !ok || !t.TargetsDevices() || len(devices) == 0 {
		return []string{""}
	}
	return devices
}

// deliver sends every part to one target. A failed part does not stop the
// remaining parts from being tried.
func (d *Dispatcher) deliver(ctx context.Context, term model.SearchTerm, label, title, device string, parts []string) bool {
	delivered := true
	for i, part := range parts {
		msg := model.Message{
			Title:    title,
			Body:     part,
			Device:   device,
			Priority: d.priority,
		}
		if len(parts) > 1 {
			msg.Title = fmt.Sprintf("%s (%d/%d)", title, i+1, len(parts))
		}

		err := retry.Do(ctx, d.policy, d.logger, "notify "+label, func(ctx context.Context) error {
			return d.gateway.Send(ctx, msg)
		})
		if err != nil {
			d.logger.Error("notification failed",
				"term", term,
				"device", label,
				"part", i+1,
				"attempts", d.policy.MaxRetries+1,
				"error", err,
			)
			delivered = false
		}
	}
	return delivered
}

// SendTestMessage dispatches a sample alert to verify the integration works.
func SendTestMessage(ctx context.Context, d *Dispatcher, devices []string) Report {
	body := message.Format([]model.Posting{
		{
			Company: "JobAlert Test",
			Title:   "Test Notification (Integration Verified)",
			URL:     "https://www.linkedin.com/jobs",
		},
	})
	return d.Dispatch(ctx, model.SearchTerm("test"), devices, body)
}
