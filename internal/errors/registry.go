package errors

import "sort"

// ErrorTemplate defines a registered error code.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vmodel.dev/docs/errors/"

var registry = map[string]ErrorTemplate{
	// Runtime (M001-M019)
	"M001": {
		Category: CategoryAction,
		Message:  "Unknown action",
		Detail:   "The model has no action with this name. Check the map returned by the descriptor's Actions factory.",
		DocURL:   docBase + "M001",
	},
	"M002": {
		Category: CategoryState,
		Message:  "Unknown state key",
		Detail:   "A partial update named a key that is not a field of the struct state. Keys resolve by model tag, json tag, then field name.",
		DocURL:   docBase + "M002",
	},
	"M003": {
		Category: CategoryState,
		Message:  "State value type mismatch",
		Detail:   "A partial update carried a value that cannot be stored in the target field.",
		DocURL:   docBase + "M003",
	},
	"M004": {
		Category: CategoryState,
		Message:  "Unsupported state type",
		Detail:   "Model state must be a struct, a pointer to a struct, or a map with string keys.",
		DocURL:   docBase + "M004",
	},
	"M005": {
		Category: CategoryRuntime,
		Message:  "Hook slot type mismatch",
		Detail:   "A hook found a slot created by a different hook. Hooks must be called unconditionally and in the same order on every render.",
		DocURL:   docBase + "M005",
	},
	"M006": {
		Category: CategoryRuntime,
		Message:  "Hook order changed",
		Detail:   "A component called a different sequence of hooks than on its first render.",
		DocURL:   docBase + "M006",
	},
	"M007": {
		Category: CategoryRuntime,
		Message:  "Registry key reused with a different state type",
		Detail:   "A keyed model was requested with a state type other than the one it was created with.",
		DocURL:   docBase + "M007",
	},
	"M008": {
		Category: CategoryAction,
		Message:  "Invalid action argument",
		Detail:   "An action received too few arguments, or an argument of the wrong type.",
		DocURL:   docBase + "M008",
	},
	"M009": {
		Category: CategoryAction,
		Message:  "Action panicked",
		Detail:   "An action running on its own goroutine panicked. The panic was converted into the action's error.",
		DocURL:   docBase + "M009",
	},
	"M010": {
		Category: CategoryRuntime,
		Message:  "Render loop",
		Detail:   "A view kept marking itself dirty during render. Do not update stores unconditionally while rendering.",
		DocURL:   docBase + "M010",
	},
	"M011": {
		Category: CategoryState,
		Message:  "Store accessed from inside its own update",
		Detail:   "An update function read or wrote the store it is updating. Use the state passed to the updater and return the patch instead.",
		DocURL:   docBase + "M011",
	},

	// Persistence (M020-M029)
	"M020": {
		Category: CategoryPersist,
		Message:  "Snapshot encoding failed",
		Detail:   "The model state could not be encoded as JSON.",
		DocURL:   docBase + "M020",
	},
	"M021": {
		Category: CategoryPersist,
		Message:  "Snapshot decoding failed",
		Detail:   "The stored snapshot does not decode into the model's state type.",
		DocURL:   docBase + "M021",
	},
	"M022": {
		Category: CategoryPersist,
		Message:  "Storage operation failed",
		Detail:   "The snapshot storage backend returned an error.",
		DocURL:   docBase + "M022",
	},

	// Devtools (M030-M039)
	"M030": {
		Category: CategoryDevtools,
		Message:  "Model not found",
		Detail:   "No model with this name is registered.",
		DocURL:   docBase + "M030",
	},
	"M031": {
		Category: CategoryDevtools,
		Message:  "Invalid request body",
		Detail:   "Action arguments must be a JSON array.",
		DocURL:   docBase + "M031",
	},

	// Config and CLI (M040-M049)
	"M040": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is missing or out of range.",
		DocURL:   docBase + "M040",
	},
	"M041": {
		Category: CategoryCLI,
		Message:  "Snapshot not found",
		Detail:   "No snapshot is stored under this key.",
		DocURL:   docBase + "M041",
	},
}

// GetAllCodes returns every registered code in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
