// Package errors provides structured, actionable error messages for uikit.
//
// Every error a user can hit carries a code, a short message, a detail that
// says what was missing and a suggestion that says where to fix it:
//
//	err := errors.New("E103").
//	    WithSuggestion(`Set "paths.ui" in uikit.json or pass a path argument`)
//
//	fmt.Println(err.Format())
//	// ERROR E103: UI directory not configured
//	//
//	//   No path was given and uikit.json does not define a UI components directory.
//	//
//	//   Hint: Set "paths.ui" in uikit.json or pass a path argument
//
// # Error Codes
//
//   - E100-E109: project configuration
//   - E110-E119: registries and items
//   - E120-E129: source parsing and transforms
//   - E130-E139: command line input and output
package errors
