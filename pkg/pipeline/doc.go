// Package pipeline provides the ordered, fail-fast chain of segment
// transformations used by every sub-filtering direction.
//
// A [Pipeline] is append-only: [Pipeline.AddLast] is the only in-place
// mutation. Extension hooks that need to insert, remove or replace steps use
// the derived builders ([Pipeline.InsertAfter], [Pipeline.InsertBefore],
// [Pipeline.Without], [Pipeline.Replace]), which leave the receiver untouched
// and return a new pipeline.
//
// The package also defines the error taxonomy shared by steps and the
// facade: [ValidationError], [ConfigurationError] and
// [UnsupportedDirectionError].
package pipeline
