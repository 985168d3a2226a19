// Package entities registers the importable business entities with the core
// registry. Import this package to ensure all templates are registered.
package entities

// Each entity file uses init() to register its template.
