package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/aretw0/warden/pkg/ports"
)

const mask = "***"

type maskMiddleware struct {
	next     ports.StatusStore
	replacer *strings.Replacer
}

// NewSecretMask replaces every occurrence of the given secrets in stop
// reasons before they reach the wrapped store. Stop reasons often quote host
// dialogs and error messages verbatim.
func NewSecretMask(secrets ...string) Middleware {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, mask)
		}
	}
	return func(next ports.StatusStore) ports.StatusStore {
		if len(pairs) == 0 {
			return next
		}
		return &maskMiddleware{next: next, replacer: strings.NewReplacer(pairs...)}
	}
}

func (m *maskMiddleware) Save(ctx context.Context, instance string, state domain.SessionState) error {
	state.Stop = m.maskStop(state.Stop)
	return m.next.Save(ctx, instance, state)
}

func (m *maskMiddleware) Load(ctx context.Context, instance string) (domain.SessionState, error) {
	return m.next.Load(ctx, instance)
}

func (m *maskMiddleware) Record(ctx context.Context, instance string, ev domain.TransitionEvent) error {
	ev.Stop = m.maskStop(ev.Stop)
	return m.next.Record(ctx, instance, ev)
}

func (m *maskMiddleware) History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error) {
	return m.next.History(ctx, instance, limit)
}

// maskStop copies the request so the caller's state is left untouched.
func (m *maskMiddleware) maskStop(stop *domain.StopRequest) *domain.StopRequest {
	if stop == nil {
		return nil
	}
	cloned := *stop
	cloned.Reason = m.replacer.Replace(cloned.Reason)
	return &cloned
}
