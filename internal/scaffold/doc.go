// Package scaffold runs the template pipeline behind "specify init": fetch the
// latest release, download the matching asset, materialize it into the
// project root and normalize script permissions. Progress is reported step
// by step through a Reporter, and the package owns rollback of roots it
// created.
package scaffold
