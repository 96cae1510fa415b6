// Package kinds registers the import kinds with the core registry.
// Import this package to ensure all kinds are registered.
package kinds

// Each kind file uses init() to register its kind. Additional kinds can be
// declared in YAML and registered at startup with RegisterFile.
