package repository

import (
	"context"
	stderrors "errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localxplore/pkg/errors"
	"localxplore/pkg/logger"
)

// txMaxAttempts caps internal retries on store contention before the
// failure is surfaced as UNAVAILABLE.
const txMaxAttempts = 3

// runTransaction wraps Firestore transactions with the retry policy shared
// by every write path: domain errors pass through untouched, contention is
// retried up to the cap, anything transient beyond that becomes UNAVAILABLE.
func runTransaction(ctx context.Context, client *firestore.Client, fn func(context.Context, *firestore.Transaction) error) error {
	var lastErr error

	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err := client.RunTransaction(ctx, fn, firestore.MaxAttempts(1))
		if err == nil {
			return nil
		}

		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return appErr
		}

		switch status.Code(err) {
		case codes.Aborted:
			lastErr = errors.Conflict("Transaction aborted by concurrent writer", err)
			logger.Debug("runTransaction: attempt %d/%d aborted, retrying", attempt, txMaxAttempts)
			continue
		case codes.Unavailable, codes.DeadlineExceeded:
			return errors.Unavailable("Store unreachable", err)
		}

		return errors.Internal("Transaction failed", err)
	}

	return errors.Unavailable("Store contention not resolved after retries", lastErr)
}
