// Package gitclone implements the Cloner driven port on top of the
// system git binary.
//
// Repositories are checked out below a destination root at
// root/owner/name. Clones are shallow by default, and an optional prune
// pass strips VCS metadata and non-source files afterwards, which keeps
// harvested corpora small. A repository already present under the root
// is reused rather than re-cloned, so interrupted harvests can be
// re-run cheaply.
//
// The git invocation is a package variable so tests can stub it out;
// everything else is plain filesystem work.
package gitclone
