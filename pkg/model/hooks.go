package model

import (
	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/reactive"
)

type createKey struct{ desc any }

type registryKey struct{}

// Create returns the Model for d.
//
// Outside a render it creates a new Model, which is how package-level
// singletons are declared:
//
//	var Cart = model.Create(&cartDescriptor)
//
// Inside a render the Model is memoized on the current scope by the
// descriptor pointer: every call with the same pointer in the same scope
// returns the same Model, and the Model is destroyed with the scope.
func Create[S any](d *Descriptor[S], opts ...Option) *Model[S] {
	owner := reactive.CurrentOwner()
	if owner == nil || !reactive.InRender() {
		return New(*d, opts...)
	}

	key := createKey{desc: d}
	if v, ok := owner.OwnValue(key); ok {
		m, ok := v.(*Model[S])
		if !ok {
			panic(typeMismatch(d.Name, v))
		}
		return m
	}

	m := New(*d, opts...)
	owner.SetValue(key, m)
	owner.OnCleanup(m.Destroy)
	return m
}

// UseModel returns the state and actions of a Model created from d on the
// first render of the calling component and reused on every later render,
// even when d is written inline. The Model is destroyed with the component.
//
//	func TodoList() {
//	    state, actions := model.UseModel(todoDescriptor())
//	    ...
//	}
//
// With WithKey the Model is shared by key through a Registry instead and
// outlives the component.
func UseModel[S any](d Descriptor[S], opts ...Option) (S, *Actions) {
	return useModel(d, opts).Use()
}

// UseModelSelect is UseModel with a selector: the component re-renders only
// when the projection changes.
func UseModelSelect[S, V any](d Descriptor[S], sel func(S) V, opts ...Option) (V, *Actions) {
	return Select(useModel(d, opts), sel)
}

func useModel[S any](d Descriptor[S], opts []Option) *Model[S] {
	o := buildOptions(opts)
	owner := reactive.CurrentOwner()
	rendering := owner != nil && reactive.InRender()

	if !rendering {
		if reg := registryFor(o); o.key != "" && reg != nil {
			return keyed(reg, o.key, d, opts)
		}
		return New(d, opts...)
	}

	owner.TrackHook(reactive.HookModel)
	if slot := owner.UseHookSlot(); slot != nil {
		m, ok := slot.(*Model[S])
		if !ok {
			panic(reactive.SlotMismatch(reactive.HookModel, slot))
		}
		return m
	}

	var m *Model[S]
	if reg := registryFor(o); o.key != "" && reg != nil {
		m = keyed(reg, o.key, d, opts)
	} else {
		m = New(d, opts...)
		owner.OnCleanup(m.Destroy)
	}
	owner.SetHookSlot(m)
	return m
}

func registryFor(o options) *Registry {
	if o.registry != nil {
		return o.registry
	}
	return RegistryFromScope()
}

func keyed[S any](reg *Registry, key string, d Descriptor[S], opts []Option) *Model[S] {
	v, _ := reg.LoadOrCreate(key, func() Inspectable {
		// LoadOrCreate stores the result itself, so do not pass the
		// registry on to New.
		opts := append(append([]Option(nil), opts...), WithName(key), WithRegistry(nil))
		m := New(d, opts...)
		m.registry = reg
		return m
	})
	m, ok := v.(*Model[S])
	if !ok {
		panic(typeMismatch(key, v))
	}
	return m
}

func typeMismatch(name string, got any) error {
	return vmerrors.New("M007").
		WithDetailf("model %q is a %T", name, got).
		Wrap(ErrTypeMismatch)
}

// Provide makes reg the registry that keyed UseModel calls resolve in, for
// the current scope and its descendants.
func Provide(reg *Registry) {
	reactive.SetContext(registryKey{}, reg)
}

// RegistryFromScope returns the registry provided in the current scope.
func RegistryFromScope() *Registry {
	reg, _ := reactive.GetContext(registryKey{}).(*Registry)
	return reg
}
