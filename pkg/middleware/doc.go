// Package middleware provides action interceptors for models.
//
// Every interceptor here has the model.Interceptor signature and is
// installed with model.WithInterceptors:
//
//	m := model.New(cart,
//	    model.WithInterceptors(
//	        middleware.Logger(slog.Default()),
//	        middleware.Prometheus(middleware.WithNamespace("shop")),
//	        middleware.OpenTelemetry(),
//	        middleware.Events(),
//	    ),
//	)
//
// The first interceptor given is the outermost: in the chain above the
// logger observes the time spent in metrics, tracing and the action itself.
package middleware
