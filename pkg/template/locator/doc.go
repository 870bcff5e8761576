// Package locator resolves template references to files on disk.
//
// A reference is either plain ("news/list"), resolved against the local
// template directory of the active theme, or namespaced ("@admin/news/list"),
// resolved against the directory registered for that namespace. References
// are rejected before any filesystem access when they contain NUL bytes or
// when their ".." segments would climb above the directory they start from.
//
//	loc := locator.New(app)
//	loc.RegisterNamespace("admin", "/srv/site/admin/templates")
//	path, err := loc.Locate("@admin/news/list") // /srv/site/admin/templates/news/list.twig
package locator
