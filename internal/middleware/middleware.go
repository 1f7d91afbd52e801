package middleware

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twig/internal/errors"
	"twig/internal/logging"
)

// RunE is the signature of a cobra command body.
type RunE func(cmd *cobra.Command, args []string) error

type Middleware func(RunE) RunE

// Chain wraps h so that the last middleware runs first.
func Chain(h RunE, middlewares ...Middleware) RunE {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}

// OperationID tags the command context with a fresh uuid.
func OperationID(next RunE) RunE {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.ContextWithOperationID(cmd.Context(), uuid.New().String())
		cmd.SetContext(ctx)
		return next(cmd, args)
	}
}

// Logger records each command with its duration and outcome. Domain errors
// are expected outcomes and log at debug.
func Logger(logger *logging.Logger) Middleware {
	return func(next RunE) RunE {
		return func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := next(cmd, args)

			log := logger.WithOperationID(cmd.Context())
			fields := []zap.Field{
				zap.String("command", cmd.Name()),
				zap.Strings("args", args),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err == nil:
				log.Debug("command completed", fields...)
			case errors.IsUserError(err):
				log.Debug("command refused", append(fields, zap.String("reason", errors.Message(err)))...)
			default:
				log.Error("command failed", append(fields, zap.Error(err))...)
			}
			return err
		}
	}
}

// Recover turns a panic in the command body into a fatal error.
func Recover(logger *logging.Logger) Middleware {
	return func(next RunE) RunE {
		return func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithOperationID(cmd.Context()).Error("panic recovered",
						zap.String("command", cmd.Name()),
						zap.Any("panic", r),
					)
					err = fmt.Errorf("internal error in %s: %v", cmd.Name(), r)
				}
			}()
			return next(cmd, args)
		}
	}
}
