package service

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often a transaction that lost a lock conflict is
// run again.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// runTx runs fn in a transaction, repeating the whole transaction when it
// fails with entity.ErrConcurrentUpdate.
func runTx(ctx context.Context, tx database.TxManager, policy RetryPolicy, op string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := tx.WithTx(ctx, fn)
		if err == nil || !errors.Is(err, entity.ErrConcurrentUpdate) || attempt >= policy.MaxRetries {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
		}).Warn("Transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Backoff * time.Duration(attempt+1)):
		}
	}
}
