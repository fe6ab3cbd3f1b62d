// Package main provides the arcalts command-line interface.
//
// arcalts builds a catalog of stage alts (numbered variant folders such as
// stage/<name>/normal_s01) from an archive and remaps the archive's lookup
// tables so a stage load reads the selected variant's files in place of the
// base files.
//
// The main binary supports multiple subcommands:
//   - seed: Generate a sample stage tree
//   - pack: Pack a directory tree into an .arcz archive
//   - validate: Check an archive's tables and sibling chains
//   - catalog: List discovered alts
//   - simulate: Replay a stage select script
//   - mount: Serve the remapped archive over FUSE
package main
