// Package version reports the arcalts build version.
//
// Values linked in at build time win over what the go toolchain records in
// the binary's build info:
//
//	-ldflags "-X github.com/dendrascience/arcalts/version.Version=v1.0.0 \
//	          -X github.com/dendrascience/arcalts/version.Commit=abc1234 \
//	          -X github.com/dendrascience/arcalts/version.Date=2026-01-01T00:00:00Z"
//
// Packed archives record GetVersion in their metadata.
package version
