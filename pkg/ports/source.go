package ports

import (
	"context"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// FactSource supplies the facts describing the current automation
// environment, typically produced by a screen/image recognition subsystem.
// A source returning an error does not stop the polling loop; the pass is
// skipped and the loop tries again on the next tick.
type FactSource interface {
	Facts(ctx context.Context) (domain.Facts, error)
}

// FactSourceFunc adapts a plain function to a FactSource.
type FactSourceFunc func(ctx context.Context) (domain.Facts, error)

// Facts implements FactSource.
func (f FactSourceFunc) Facts(ctx context.Context) (domain.Facts, error) {
	return f(ctx)
}
