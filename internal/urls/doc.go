// Package urls provides centralized constants for the documentation URLs
// printed by the command line tools.
//
// Usage:
//
//	import "github.com/muurk/signflow/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.StepTableFormat)
package urls
