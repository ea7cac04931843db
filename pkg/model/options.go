package model

// Option configures a Model.
type Option func(*options)

type options struct {
	name         string
	key          string
	interceptors []Interceptor
	registry     *Registry
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName overrides the descriptor's name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithInterceptors appends action interceptors. The first one given is the
// outermost.
func WithInterceptors(ics ...Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, ics...)
	}
}

// WithRegistry registers the Model in reg when it is created and removes it
// when the Model is destroyed. For UseModel with WithKey, reg is also the
// registry the key is resolved in.
func WithRegistry(reg *Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithKey makes UseModel share one Model per key through a Registry, either
// the one given with WithRegistry or the one provided in scope with Provide.
// Other constructors ignore it.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}
