package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		WindowsDispatched, HandlerMatches, HandlerErrors, HandlerDuration,
		Transitions, SessionPhase,
		Commands, ConfigTasks, TriggersFired,
	}
	for _, c := range collectors {
		desc := make(chan *prometheus.Desc, 1)
		c.Describe(desc)
		close(desc)
		require.NotNil(t, <-desc)
	}
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	hooks := Hooks()

	before := testutil.ToFloat64(HandlerMatches.WithLabelValues("login"))
	hooks.OnMatch(ctx, domain.DispatchEvent{Handler: "login", Duration: 20 * time.Millisecond})
	assert.Equal(t, before+1, testutil.ToFloat64(HandlerMatches.WithLabelValues("login")))

	before = testutil.ToFloat64(HandlerErrors.WithLabelValues("login"))
	hooks.OnActionError(ctx, domain.DispatchEvent{Handler: "login", Err: errors.New("boom")})
	assert.Equal(t, before+1, testutil.ToFloat64(HandlerErrors.WithLabelValues("login")))

	before = testutil.ToFloat64(WindowsDispatched.WithLabelValues("unmatched"))
	hooks.OnMiss(ctx, domain.DispatchEvent{Title: "Unknown"})
	assert.Equal(t, before+1, testutil.ToFloat64(WindowsDispatched.WithLabelValues("unmatched")))

	hooks.OnTransition(ctx, domain.TransitionEvent{From: domain.PhaseLoggingIn, To: domain.PhaseRunning})
	assert.Equal(t, 1.0, testutil.ToFloat64(SessionPhase.WithLabelValues(string(domain.PhaseRunning))))
	assert.Equal(t, 0.0, testutil.ToFloat64(SessionPhase.WithLabelValues(string(domain.PhaseLoggingIn))))
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTransition: func(context.Context, domain.TransitionEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnTransition: func(context.Context, domain.TransitionEvent) { calls = append(calls, "b") }}

	chained := Chain(a, domain.LifecycleHooks{}, b)
	chained.OnTransition(context.Background(), domain.TransitionEvent{})
	chained.OnMatch(context.Background(), domain.DispatchEvent{})

	assert.Equal(t, []string{"a", "b"}, calls)
}
