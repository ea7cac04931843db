// Package shallow provides the one-level comparison and merge rules used by
// stores and models.
//
// Equal compares two values at the top level only. Maps, slices, arrays and
// structs are compared member by member, and every member is compared by
// identity: scalars by value, reference types (maps, slices, pointers,
// channels, funcs) by address. A selector that returns a freshly built struct
// or slice of the same members is therefore equal to the previous result,
// while a selector that returns a different slice header is not.
//
// Merge applies a first-level patch to a state value:
//
//	next, err := shallow.Merge(prev, map[string]any{"count": 3})
//
// Only the named top-level keys are replaced; nested values are never merged.
// Callers that need a deeper update build the nested value themselves.
package shallow
