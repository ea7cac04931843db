package persist

import "github.com/zoobzio/capitan"

// Persistence lifecycle signals.
var (
	SnapshotRestored = capitan.NewSignal(
		"vmodel.persist.restored",
		"Model state hydrated from storage",
	)
	SnapshotSaved = capitan.NewSignal(
		"vmodel.persist.saved",
		"Model snapshot written to storage",
	)
	SnapshotFailed = capitan.NewSignal(
		"vmodel.persist.failed",
		"Model snapshot could not be loaded or saved",
	)
)

// Event field keys.
var (
	KeyModel   = capitan.NewStringKey("model")
	KeyKey     = capitan.NewStringKey("key")
	KeyVersion = capitan.NewIntKey("version")
	KeySize    = capitan.NewIntKey("size")
	KeyError   = capitan.NewStringKey("error")
)
