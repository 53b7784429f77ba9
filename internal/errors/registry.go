package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E109)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Not a uikit project",
		Detail:   "No uikit.json was found in the current directory or any parent directory.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "uikit.json could not be parsed.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Configuration not writable",
		Detail:   "uikit.json could not be updated.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "UI directory not configured",
		Detail:   "No path was given and uikit.json does not define a UI components directory.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E103",
	},

	// ============================================
	// Registry Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryRegistry,
		Message:  "Invalid registry document",
		Detail:   "The registry document does not match the registry schema.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E110",
	},
	"E111": {
		Category: CategoryRegistry,
		Message:  "Registry unavailable",
		Detail:   "Unable to fetch the registry document.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E111",
	},
	"E112": {
		Category: CategoryRegistry,
		Message:  "Item not found",
		Detail:   "The requested item is not available in any configured registry.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E112",
	},
	"E113": {
		Category: CategoryRegistry,
		Message:  "Invalid registry item",
		Detail:   "The registry item does not match the item schema.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E113",
	},
	"E114": {
		Category: CategoryRegistry,
		Message:  "Invalid registry list",
		Detail:   "The registry list must be a JSON array of URL strings.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E114",
	},
	"E115": {
		Category: CategoryRegistry,
		Message:  "Registry index missing",
		Detail:   "No merged registry has been built yet.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E115",
	},
	"E116": {
		Category: CategoryRegistry,
		Message:  "Dependency cycle",
		Detail:   "The registry dependencies of the requested items form a cycle.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E116",
	},

	// ============================================
	// Transform Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryTransform,
		Message:  "Source parse failed",
		Detail:   "The file could not be parsed into a markup tree.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E120",
	},
	"E121": {
		Category: CategoryTransform,
		Message:  "Transform failed",
		Detail:   "A source transform could not be applied.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E121",
	},

	// ============================================
	// CLI Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryCLI,
		Message:  "No files matched",
		Detail:   "The path or glob did not match any source files.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E130",
	},
	"E131": {
		Category: CategoryCLI,
		Message:  "Artifact write failed",
		Detail:   "The registry artifacts could not be written.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E131",
	},
	"E132": {
		Category: CategoryCLI,
		Message:  "File write failed",
		Detail:   "A component file could not be written.",
		DocURL:   "https://vango.dev/docs/uikit/errors/E132",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
