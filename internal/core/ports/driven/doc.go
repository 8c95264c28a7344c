// Package driven defines the interfaces that core calls OUT to collaborators.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces; the surrounding application
// (or an adapter) implements them.
//
// # Required Interfaces
//
//   - DocumentEngine: The rendering/paging engine's search, page-text and
//     character-index primitives. Its Search is the only asynchronous,
//     cancellable operation in the subsystem.
//   - MarkStore: Read access to loaded markup objects and their comments,
//     plus the explicit write operations used by quick actions.
//   - TextMatcher: The synchronous string-matching primitive, used
//     identically against mark text and comment text.
//
// # Optional Interfaces
//
// These can be nil - the subsystem degrades gracefully:
//
//   - PresetStore: Configured preset terms. Without it, only typed terms
//     participate in queries.
//   - HighlightStore: Persisted highlight colours. Without it, colours
//     are auto-assigned per document session and not remembered.
package driven
