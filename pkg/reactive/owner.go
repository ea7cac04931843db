package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/vmodel/internal/errors"
)

// HookType identifies the kind of hook call for order validation.
type HookType uint8

const (
	HookMemo HookType = iota + 1
	HookModel
	HookSelect
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookMemo:
		return "Memo"
	case HookModel:
		return "UseModel"
	case HookSelect:
		return "Select"
	default:
		return "Unknown"
	}
}

// Owner is a component scope. It owns hook slots, context values, cleanups
// and child scopes. Disposing an Owner disposes its children first (last
// created first), then runs its cleanups in reverse registration order.
//
// Owners form a tree mirroring the component tree.
type Owner struct {
	id     uint64
	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool

	// Debug-mode hook order tracking.
	hookOrder   []HookType
	hookIndex   int
	renderCount int

	// Hook slots give hooks a stable identity across renders.
	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates an Owner under parent. A nil parent creates a root.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     NextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has been called.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when the Owner is disposed.
// On an already disposed Owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// Dispose disposes the Owner, its children and runs its cleanups.
// Calling it again is a no-op.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// SetValue stores a scope value visible to this Owner and its descendants.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue looks key up on this Owner, then on its ancestors.
func (o *Owner) GetValue(key any) any {
	v, _ := o.LookupValue(key)
	return v
}

// LookupValue is GetValue that also reports whether the key was found.
func (o *Owner) LookupValue(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// OwnValue looks key up on this Owner only.
func (o *Owner) OwnValue(key any) (any, bool) {
	o.valuesMu.RLock()
	defer o.valuesMu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

// StartRender begins a render pass: hook slots are handed out from the
// start again. In debug mode the hook order index is reset too.
func (o *Owner) StartRender() {
	o.hookSlotIdx = 0
	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender ends a render pass. In debug mode the first pass fixes the hook
// order; later passes that call fewer hooks panic.
func (o *Owner) EndRender() {
	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(errors.New("M006").WithDetailf("expected %d hooks, got %d",
			len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call. In debug mode hooks must be called in the
// same order on every render.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}

	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, ht)
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			panic(errors.New("M006").WithDetailf("extra %s hook at index %d", ht, o.hookIndex))
		}
		if expected := o.hookOrder[o.hookIndex]; expected != ht {
			panic(errors.New("M006").WithDetailf("at index %d: expected %s, got %s",
				o.hookIndex, expected, ht))
		}
	}
	o.hookIndex++
}

// UseHookSlot returns the value stored in the next hook slot, or nil on the
// first render, in which case the caller creates the value and stores it
// with SetHookSlot.
//
//	func useThing() *thing {
//	    owner := reactive.CurrentOwner()
//	    if slot := owner.UseHookSlot(); slot != nil {
//	        return slot.(*thing)
//	    }
//	    t := &thing{}
//	    owner.SetHookSlot(t)
//	    return t
//	}
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores value in the slot just handed out by UseHookSlot.
func (o *Owner) SetHookSlot(value any) {
	idx := o.hookSlotIdx - 1
	if idx >= 0 && idx < len(o.hookSlots) {
		o.hookSlots[idx] = value
		return
	}
	o.hookSlots = append(o.hookSlots, value)
}

// SlotMismatch builds the panic value for a hook that found a slot of the
// wrong type.
func SlotMismatch(hook HookType, got any) error {
	return errors.New("M005").WithDetailf("%s hook found slot of type %T", hook, got)
}
