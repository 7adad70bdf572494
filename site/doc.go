// Package site loads the documents a project-showcase page is rendered
// from (site config, page content, team roster) through a fetch cache,
// validating them loosely and falling back to built-in defaults.
package site
