// Package platform isolates operating-system differences. Today that is the
// permission pass that marks template shell scripts executable after
// extraction; on Windows it is a no-op selected at runtime.
package platform
