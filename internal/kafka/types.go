package kafka

import (
	"errors"
	"fmt"
	"time"
)

// RetryableError marks a handler failure worth another attempt once Delay
// has passed. The consumer stops retrying after maxHandleAttempts.
type RetryableError struct {
	Err   error
	Delay time.Duration
}

// Retry wraps err so the consumer tries the message again after delay.
// A nil err stays nil.
func Retry(err error, delay time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Delay: delay}
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable in %s: %v", e.Delay, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func retryDelay(err error) (time.Duration, bool) {
	var retry *RetryableError
	if !errors.As(err, &retry) {
		return 0, false
	}
	return retry.Delay, true
}
