package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/persistence/middleware"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretMask(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := middleware.Chain(inner, middleware.NewSecretMask("hunter2", ""))

	stop := &domain.StopRequest{Kind: domain.StopShutdown, Source: "dialog", Reason: "login failed for alice/hunter2"}
	require.NoError(t, store.Save(ctx, "live", domain.SessionState{Phase: domain.PhaseShuttingDown, Stop: stop}))
	require.NoError(t, store.Record(ctx, "live", domain.TransitionEvent{From: domain.PhaseLoggingIn, To: domain.PhaseShuttingDown, Stop: stop}))

	state, err := inner.Load(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "login failed for alice/***", state.Stop.Reason)

	history, err := store.History(ctx, "live", 1)
	require.NoError(t, err)
	assert.Equal(t, "login failed for alice/***", history[0].Stop.Reason)

	assert.Equal(t, "login failed for alice/hunter2", stop.Reason, "caller's request is not modified")
}

func TestSecretMask_NoSecretsIsIdentity(t *testing.T) {
	inner := memory.NewStore()
	assert.Same(t, ports.StatusStore(inner), middleware.NewSecretMask()(inner))
}

func TestSecretMask_Contract(t *testing.T) {
	ports.RunStatusStoreContract(t, middleware.NewSecretMask("s3cret")(memory.NewStore()))
}
