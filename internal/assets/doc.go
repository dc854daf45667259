// Package assets builds the fingerprinted CSS bundle and the per-directory JS
// bundles.
//
// A bundle's file name embeds a truncated SHA-1 digest of its final
// (post-minification) bytes, so identical content always produces an
// identical name regardless of build order.
//
// JS files are grouped by their immediate containing directory; the group
// key is that directory's base name. Files inside a group are concatenated
// in lexical name order, which makes bundles reproducible across machines.
package assets
