package services

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors. Handlers translate these into HTTP statuses; anything
// else that escapes a service is an unexpected storage failure.
var (
	// ErrAlreadyCompleted means the user was already credited for this
	// exact action. Safe to treat as a no-op on the client side.
	ErrAlreadyCompleted = errors.New("action already completed")

	// ErrTargetNotFound means the referenced article/game/poll/session
	// does not exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrNoActiveChallenge means no unverified code exists for the number
	ErrNoActiveChallenge = errors.New("no active verification code")

	// ErrChallengeInvalid means the challenge is expired or its attempt
	// budget is exhausted. It never becomes verifiable again.
	ErrChallengeInvalid = errors.New("verification code expired or attempts exhausted")

	// ErrDeliveryFailed means the gateway could not deliver the code;
	// any state created for the issuance has been rolled back.
	ErrDeliveryFailed = errors.New("failed to deliver verification code")

	// ErrServiceUnavailable means the delivery gateway is not connected
	ErrServiceUnavailable = errors.New("delivery service unavailable")
)

// TooSoonError rejects a resend inside the cooldown window and carries
// how long the caller still has to wait.
type TooSoonError struct {
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", int(e.RetryAfter.Seconds()))
}
