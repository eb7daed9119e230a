// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSendTimeout bounds a single delivery attempt.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher renders mails on the caller's goroutine and delivers them in
// the background. Delivery errors are logged, never returned.
type Dispatcher struct {
	mailer  Mailer
	wg      sync.WaitGroup
	codeTTL time.Duration
	timeout time.Duration
}

func NewDispatcher(mailer Mailer, codeTTL time.Duration) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		codeTTL: codeTTL,
		timeout: DefaultSendTimeout,
	}
}

// Dispatch queues msg for delivery. The request context only supplies the
// locale; cancelling it does not abort the send.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	rendered, err := Render(ctx, msg, d.codeTTL)
	if err != nil {
		slog.Error("mail_render_failed", "kind", msg.Kind, "error", err)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, rendered); err != nil {
			slog.Error("mail_send_failed", "kind", msg.Kind, "to", msg.To, "error", err)
			return
		}
		slog.Info("mail_sent", "kind", msg.Kind, "to", msg.To)
	}()
}

// Wait blocks until all queued deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
