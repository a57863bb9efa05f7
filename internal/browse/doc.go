// Package browse holds the filter state behind the blog and project listings.
//
// Posts are filtered by the CMS through query parameters (PostBrowser).
// Projects are fetched once as a full collection and filtered locally
// (ProjectCatalog), because the project endpoint cannot combine a category
// filter with a technology filter.
package browse
