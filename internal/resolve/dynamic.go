// internal/resolve/dynamic.go
package resolve

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// WaitForDynamicContent waits, best effort, for a freshly navigated or
// mutated page to settle before resolution begins: first the configured load
// state, then a mutation-quiet window. Neither sub-wait failing is an error;
// pages with long-polling or carousels never go fully quiet and resolution
// must proceed anyway. Only context cancellation is returned.
func (r *Resolver) WaitForDynamicContent(ctx context.Context) error {
	log := r.logger.Named("dynamic")
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.backend.WaitForLoadState(ctx, r.cfg.LoadState, r.cfg.DefaultTimeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Debug("Load state wait did not complete.",
			zap.String("state", r.cfg.LoadState), zap.Error(err))
	}

	start := time.Now()
	err := r.backend.WaitForMutationQuiet(ctx, r.cfg.MutationQuiet, r.cfg.MutationCeiling)
	switch {
	case err == nil:
		log.Debug("DOM quiescent.", zap.Duration("waited", time.Since(start)))
	case errors.Is(err, ErrUnsupported):
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		log.Debug("Mutation quiet window not reached before ceiling, proceeding.",
			zap.Duration("ceiling", r.cfg.MutationCeiling), zap.Error(err))
	}
	return nil
}
