package reactive

// SetContext stores a value on the current owner. It is visible to the
// owner and all descendants through GetContext. Outside an owner it does
// nothing.
func SetContext(key, value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext returns the value stored under key by the nearest enclosing
// owner, or nil.
func GetContext(key any) any {
	if owner := getCurrentOwner(); owner != nil {
		return owner.GetValue(key)
	}
	return nil
}

// OnCleanup registers fn on the current owner. Outside an owner fn is
// never called.
func OnCleanup(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}
