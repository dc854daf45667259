// Package site runs one complete build pass.
//
// A Builder sequences the build as an ordered list of stages:
//
//	clear_output (skipped when preserving output)
//	build_assets
//	load_content
//	render
//	copy_passthrough
//
// The first failing stage aborts the pass. Its error is returned wrapped in a
// *StageError that keeps the underlying classified error reachable through
// errors.As. With atomic output enabled every stage writes into a sibling
// staging directory that replaces the output root only when all stages pass.
package site
