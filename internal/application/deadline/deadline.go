// Package deadline acota el trabajo de cada caso de uso contra el store.
package deadline

import (
	"context"
	"time"
)

// For devuelve ctx con timeout d; d <= 0 no agrega límite.
func For(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
