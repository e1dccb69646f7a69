package log

import (
	"context"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// ErrorHandler is a slog handler that enriches records logged with an
// error under ErrAttrKey. It adds the survtree error kind under ErrorTypeKey
// and the stack captured at construction under StacktraceAttrKey.
type ErrorHandler struct {
	handler slog.Handler
}

// WrapErrorHandler wraps handler with ErrorHandler.
func WrapErrorHandler(handler slog.Handler) slog.Handler {
	return &ErrorHandler{handler: handler}
}

func (eh *ErrorHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrorHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		logged, _ = attr.Value.Any().(error)
		return false
	})
	if logged == nil {
		return eh.handler.Handle(ctx, r)
	}
	if kind := errorType(logged); kind != "" {
		r.AddAttrs(slog.String(ErrorTypeKey, kind))
	}
	if stacktrace := extractStacktrace(logged); stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrorHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrorHandler) WithGroup(g string) slog.Handler {
	return &ErrorHandler{handler: eh.handler.WithGroup(g)}
}

// errorType names the outermost survtree error in err's chain, or "" when
// the chain holds none.
func errorType(err error) string {
	for ; err != nil; err = cerrors.UnwrapOnce(err) {
		switch err.(type) {
		case *errors.EmptyDatasetError:
			return "EmptyDatasetError"
		case *errors.MalformedRecordError:
			return "MalformedRecordError"
		case *errors.NotFittedError:
			return "NotFittedError"
		case *errors.DimensionError:
			return "DimensionError"
		case *errors.ValidationError:
			return "ValidationError"
		case *errors.ValueError:
			return "ValueError"
		case *errors.ModelError:
			return "ModelError"
		case *errors.NumericalInstabilityError:
			return "NumericalInstabilityError"
		case *errors.PanicError:
			return "PanicError"
		}
	}
	return ""
}

// extractStacktrace returns the first safe detail of err, which for errors
// built by pkg/errors constructors is the formatted stack.
func extractStacktrace(err error) string {
	safeDetails := cerrors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
