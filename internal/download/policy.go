package download

import (
	"context"

	"go.uber.org/zap"
)

// Failure describes a fetch that wrote nothing.
type Failure struct {
	URL   string
	Path  string
	Class string // resilience.ClassTransient or resilience.ClassPermanent
	Err   error
}

// FailurePolicy decides what a failed fetch means to the caller. A non-nil
// return is handed back from Manager.Fetch.
type FailurePolicy interface {
	OnFailure(ctx context.Context, f Failure) error
}

// FailurePolicyFunc adapts a function to FailurePolicy.
type FailurePolicyFunc func(ctx context.Context, f Failure) error

// OnFailure calls fn.
func (fn FailurePolicyFunc) OnFailure(ctx context.Context, f Failure) error {
	return fn(ctx, f)
}

// DiscardFailures drops failures without a trace.
var DiscardFailures FailurePolicy = FailurePolicyFunc(func(context.Context, Failure) error {
	return nil
})

// LogFailures logs each failure as a warning and carries on.
var LogFailures FailurePolicy = FailurePolicyFunc(func(_ context.Context, f Failure) error {
	zap.L().Warn("download: skipped report",
		zap.String("url", f.URL),
		zap.String("path", f.Path),
		zap.String("class", f.Class),
		zap.Error(f.Err),
	)
	return nil
})

// ReturnFailures hands every failure back to the caller as an error.
var ReturnFailures FailurePolicy = FailurePolicyFunc(func(_ context.Context, f Failure) error {
	return f.Err
})

// CollectFailures remembers failures for later reporting and optionally
// forwards them to Next.
type CollectFailures struct {
	Next     FailurePolicy
	failures []Failure
}

// OnFailure records f.
func (c *CollectFailures) OnFailure(ctx context.Context, f Failure) error {
	c.failures = append(c.failures, f)
	if c.Next != nil {
		return c.Next.OnFailure(ctx, f)
	}
	return nil
}

// Failures returns the recorded failures in order.
func (c *CollectFailures) Failures() []Failure {
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}
