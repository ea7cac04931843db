// Package persist saves model snapshots to a Storage and restores them.
//
// A Persister hydrates a model from its last snapshot on Start, then writes a
// new JSON snapshot after changes have settled for the debounce period:
//
//	storage := persist.NewS3Storage(s3.NewFromConfig(cfg), "my-bucket", "models")
//	p := persist.New(counter, storage, persist.WithDebounce(time.Second))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Stop()
//
// Storage failures are logged, emitted as SnapshotFailed and returned as
// coded errors from Start and Flush.
package persist
