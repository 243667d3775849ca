// Package materialize unpacks a template zip into a project directory.
//
// Extraction is split into two phases. Plan reads the archive index,
// decides whether a single wrapping directory should be stripped, and
// rejects any entry that would land outside the destination before a byte
// is written. Apply then writes the entries, either straight into a fresh
// directory or, for an existing directory, through a staging area so the
// archive is fully readable before the project is touched. Editor settings
// that already exist are merged rather than replaced.
//
// Rollback is not done here: the caller knows whether it created the
// destination and is the one allowed to remove it.
package materialize
