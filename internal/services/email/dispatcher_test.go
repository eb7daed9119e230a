// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/services/email"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Dispatch(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	dispatcher := email.NewDispatcher(mailer, time.Hour)

	dispatcher.Dispatch(context.Background(), email.Message{Kind: email.KindConfirmation, To: "a@x.com", Link: "L1"})
	dispatcher.Dispatch(context.Background(), email.Message{Kind: email.KindPasswordReset, To: "b@x.com", Link: "L2"})
	dispatcher.Wait()

	messages := mailer.Messages()
	require.Len(t, messages, 2)
	recipients := []string{messages[0].To, messages[1].To}
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, recipients)
}

func TestDispatcher_CancelledContextStillSends(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	dispatcher := email.NewDispatcher(mailer, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Dispatch(ctx, email.Message{Kind: email.KindConfirmation, To: "a@x.com", Link: "L"})
	cancel()
	dispatcher.Wait()

	assert.Len(t, mailer.Messages(), 1)
}

func TestDispatcher_SendFailureIsSwallowed(t *testing.T) {
	mailer := &testutil.RecordingMailer{Err: errors.New("connection refused")}
	dispatcher := email.NewDispatcher(mailer, time.Hour)

	assert.NotPanics(t, func() {
		dispatcher.Dispatch(context.Background(), email.Message{Kind: email.KindConfirmation, To: "a@x.com", Link: "L"})
		dispatcher.Wait()
	})
	assert.Len(t, mailer.Messages(), 1)
}

func TestDispatcher_UnknownKindIsDropped(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	dispatcher := email.NewDispatcher(mailer, time.Hour)

	dispatcher.Dispatch(context.Background(), email.Message{Kind: "newsletter", To: "a@x.com"})
	dispatcher.Wait()

	assert.Empty(t, mailer.Messages())
}
