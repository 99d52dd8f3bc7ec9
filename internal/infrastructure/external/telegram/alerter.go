package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPS ALERTER
// ══════════════════════════════════════════════════════════════════════════════

// Alerter pushes system alerts into the ops chat. A nil or disabled
// Alerter swallows alerts, so call sites never need to guard.
//
// Алерты не должны валить бизнес-логику: любая ошибка доставки
// логируется и глотается.
type Alerter struct {
	client    *Client
	opsChatID int64
	logger    *slog.Logger

	// dedup window: identical alert text within the window is dropped
	dedupWindow time.Duration
	lastAlert   map[string]time.Time
}

// NewAlerter creates an Alerter. Pass a nil client to disable alerting.
func NewAlerter(client *Client, opsChatID int64, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		client:      client,
		opsChatID:   opsChatID,
		logger:      logger.With("component", "ops_alerter"),
		dedupWindow: 10 * time.Minute,
		lastAlert:   make(map[string]time.Time),
	}
}

// Enabled reports whether alerts actually go anywhere.
func (a *Alerter) Enabled() bool {
	return a != nil && a.client != nil && a.opsChatID != 0
}

// Alert sends a plain text alert to the ops chat.
func (a *Alerter) Alert(ctx context.Context, text string) {
	if !a.Enabled() {
		return
	}

	now := time.Now()
	if last, ok := a.lastAlert[text]; ok && now.Sub(last) < a.dedupWindow {
		return
	}
	a.lastAlert[text] = now

	if _, err := a.client.SendText(ctx, a.opsChatID, text); err != nil {
		a.logger.Error("failed to deliver ops alert", "error", err)
	}
}

// Alertf formats and sends an alert.
func (a *Alerter) Alertf(ctx context.Context, format string, args ...interface{}) {
	if !a.Enabled() {
		return
	}
	a.Alert(ctx, fmt.Sprintf(format, args...))
}

// JobFailed reports a scheduler job failure.
func (a *Alerter) JobFailed(ctx context.Context, jobName string, err error) {
	a.Alertf(ctx, "⚠️ job %s failed: %v", jobName, err)
}

// PaymentMismatch reports an amount mismatch caught during confirmation.
// Это сигнал о попытке манипуляции суммой на клиенте.
func (a *Alerter) PaymentMismatch(ctx context.Context, orderID string, claimed, actual int64) {
	a.Alertf(ctx, "🚨 payment amount mismatch: order=%s claimed=%d actual=%d", orderID, claimed, actual)
}

// ServiceDown reports an external dependency outage (circuit opened).
func (a *Alerter) ServiceDown(ctx context.Context, service string) {
	a.Alertf(ctx, "🔴 %s circuit opened", service)
}

// ServiceRecovered reports that a dependency came back.
func (a *Alerter) ServiceRecovered(ctx context.Context, service string) {
	a.Alertf(ctx, "🟢 %s recovered", service)
}
