// Package errors provides the classified error primitives used across sitepress.
//
// Every failure that crosses a package boundary is a *ClassifiedError carrying a
// category, a severity, a message, an optional cause and structured context.
// Callers branch on categories (HasCategory walks the Unwrap chain) instead of
// matching strings:
//
//	err := errors.NewError(errors.CategoryMalformed, "missing pagination header").
//		WithContext("header", "X-WP-Total").
//		WithContext("url", u).
//		Build()
//
// The content client never retries; RetryStrategy is kept so the CLI adapter and
// the JSON API can tell the user whether a manual retry makes sense.
package errors
