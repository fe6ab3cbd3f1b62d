// Package altfs serves the remapped archive as a read-only FUSE filesystem.
//
// Folders come from the search section's sibling chains. A folder the active
// alt remaps lists the variant folder's files under the base folder's name,
// and reading any base file goes through the patched archive table, so the
// mount always shows the archive the way the game would load it.
//
// The main entry point is NewFS(), whose result can be served with
// bazil.org/fuse/fs.Serve.
package altfs
