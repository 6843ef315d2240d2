package formz

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on store activity.
type MetricsProvider interface {
	// OnValidationStarted is called when a validator invocation begins.
	OnValidationStarted()

	// OnValidationSettled is called when a current validator invocation
	// returns. Duration is measured on the store's clock.
	OnValidationSettled(verdict Verdict, duration time.Duration)

	// OnValidationCancelled is called when a newer value supersedes an
	// in-flight invocation.
	OnValidationCancelled()

	// OnStatePublished is called for every published state.
	OnStatePublished()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnValidationStarted()                           {}
func (NoOpMetricsProvider) OnValidationSettled(_ Verdict, _ time.Duration) {}
func (NoOpMetricsProvider) OnValidationCancelled()                         {}
func (NoOpMetricsProvider) OnStatePublished()                              {}
