// Package watch re-runs a conversion whenever one of its input files
// changes. Events are debounced so that an editor saving a file in
// several steps triggers a single run.
package watch
