// Package store is a minimal subscribable state container.
//
// A Store is created from an Initializer that receives the store's own set
// and get functions and returns the initial state. This is the shape model
// descriptors are adapted into: the initializer closes over set and get so
// that anything it builds (for example bound actions) always reaches the
// live store.
//
//	s := store.New(func(set store.SetFunc[int], get store.GetFunc[int]) int {
//	    return 0
//	})
//	unsub := s.Subscribe(func(c store.Change[int]) {
//	    fmt.Println(c.Prev, "->", c.Next)
//	})
//	defer unsub()
//	s.Set(func(n int) int { return n + 1 })
//
// Updates are applied under the store's mutex, so an update function always
// receives the latest state. Updates that leave the state equal (by
// shallow.Equal unless WithEqual says otherwise) are dropped: no version
// bump, no notification. Subscribers run outside the mutex and see changes
// in the order they were applied; a Set issued from inside a subscriber is
// delivered after the current round completes.
package store
