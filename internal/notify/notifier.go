// Package notify delivers workflow email. Delivery is best-effort:
// failures are logged and retried by the queue, never reported back to
// the operation that triggered them.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/pkg/config"
	"github.com/shiftwise/volunteer-api/pkg/jobs"
)

// Notifier fans a message out to recipients without ever failing the
// caller.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, subject, body string)
}

// MailSender is the transport a QueueNotifier dispatches to.
type MailSender interface {
	Send(recipients []string, subject, body string) error
}

type message struct {
	Recipients []string
	Subject    string
	Body       string
}

// QueueNotifier hands messages to a worker pool backed by an SMTP
// sender, so request-path operations never block on mail delivery.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier builds the notifier and its dispatch queue.
func NewQueueNotifier(sender MailSender, cfg config.NotificationsConfig, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(message)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return sender.Send(msg.Recipients, msg.Subject, msg.Body)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &QueueNotifier{queue: queue, logger: logger}
}

// Start launches the dispatch workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues one message. Enqueue failures are logged and dropped.
func (n *QueueNotifier) Notify(ctx context.Context, recipients []string, subject, body string) {
	if len(recipients) == 0 {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "email",
		Payload: message{Recipients: recipients, Subject: subject, Body: body},
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue notification",
			zap.String("subject", subject),
			zap.Int("recipients", len(recipients)),
			zap.Error(err))
	}
}

// Nop is a Notifier that does nothing, for tests and disabled setups.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, []string, string, string) {}
