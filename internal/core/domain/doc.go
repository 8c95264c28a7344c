// Package domain defines the core business entities for document search.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SearchTerm: One pattern plus its matching options
//   - SearchQuery: An ordered, pattern-unique set of terms
//   - Hit: A single match from document text, a mark, or a comment
//   - Position: A hit's place in reading order (known or pending)
//   - SearchScope: Which sources and mark categories a search covers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
