package middleware

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/vango-dev/vmodel/pkg/model"
)

// Action lifecycle signals.
var (
	// ActionDispatched is emitted when an action completes without error.
	ActionDispatched = capitan.NewSignal(
		"vmodel.action.dispatched",
		"Model action completed",
	)

	// ActionFailed is emitted when an action returns an error.
	ActionFailed = capitan.NewSignal(
		"vmodel.action.failed",
		"Model action returned an error",
	)
)

// Event field keys.
var (
	KeyModel    = capitan.NewStringKey("model")
	KeyAction   = capitan.NewStringKey("action")
	KeyError    = capitan.NewStringKey("error")
	KeyDuration = capitan.NewDurationKey("duration")
)

// Events returns an interceptor that emits ActionDispatched or ActionFailed
// after every action.
//
//	capitan.Hook(middleware.ActionFailed, func(_ context.Context, e *capitan.Event) {
//	    msg, _ := middleware.KeyError.From(e)
//	    alert(msg)
//	})
func Events() model.Interceptor {
	return func(ctx context.Context, call model.Call, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			capitan.Emit(ctx, ActionFailed,
				KeyModel.Field(call.Model),
				KeyAction.Field(call.Action),
				KeyDuration.Field(elapsed),
				KeyError.Field(err.Error()),
			)
			return err
		}
		capitan.Emit(ctx, ActionDispatched,
			KeyModel.Field(call.Model),
			KeyAction.Field(call.Action),
			KeyDuration.Field(elapsed),
		)
		return nil
	}
}
