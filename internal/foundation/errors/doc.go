// Package errors provides the classified error primitives used across ginger.
//
// Every failure a build can produce is a ClassifiedError carrying a category
// (config, asset, content, render, filesystem, ...), a severity and a small
// context map naming the offending path or template. The CLI adapter maps
// categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "parse page descriptor").
//		WithContext("path", "content/index.yml").
//		Build()
package errors
