package interpret

import (
	"context"

	"github.com/yungbote/pulse-backend/internal/domain"
)

// Interpreter classifies one utterance text. Implementations must be safe for
// concurrent use.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (domain.Interpretation, error)
}

type Func func(ctx context.Context, text string) (domain.Interpretation, error)

func (f Func) Interpret(ctx context.Context, text string) (domain.Interpretation, error) {
	return f(ctx, text)
}
