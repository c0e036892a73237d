// Package tables registers the built-in screens with the core registry.
// Import this package to ensure all tables are registered.
package tables

// Each table file uses init() to register its screens.
