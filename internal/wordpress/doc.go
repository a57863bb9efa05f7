// Package wordpress is a typed client for the WordPress REST API (wp/v2).
//
// It covers the resources a portfolio site reads: posts, categories, tags and
// the custom project content type. List calls return a Page whose totals come
// from the X-WP-Total and X-WP-TotalPages response headers. Embedded taxonomy
// terms are exposed by role through TermsOf; the positional layout of the
// wp:term array is known only to this package.
package wordpress
