// Package devtools serves the models of a registry over HTTP for inspection.
//
// Routes:
//
//	GET  /healthz                          liveness
//	GET  /metrics                          Prometheus metrics
//	GET  /models                           registered models
//	GET  /models/{name}                    state, version and action names
//	PUT  /models/{name}                    replace state with a JSON snapshot
//	POST /models/{name}/actions/{action}   dispatch with a JSON array of args
//	GET  /models/{name}/ws                 WebSocket stream of state frames
//
// Every WebSocket connection receives a "snapshot" frame, then a "change"
// frame after each burst of updates. Changes that arrive while a frame is
// being written are coalesced into the next frame.
//
// Example:
//
//	reg := model.NewRegistry()
//	counter := model.New(counterDescriptor, model.WithRegistry(reg))
//	http.ListenAndServe(":7070", devtools.New(reg))
package devtools
