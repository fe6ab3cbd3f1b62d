// Package cmd provides the command-line interface implementation for arcalts.
//
// Each command lives in its own file with a constructor returning a
// *cobra.Command; NewRootCmd wires them into two groups:
//   - alts: mount, catalog, simulate
//   - archive: pack, validate, seed
//
// Every command reads the optional --config file through internal/config and
// logs through internal/logging. Commands that need the alt catalog open the
// archive with openSession, which builds the catalog before handing the index
// to anything else.
package cmd
