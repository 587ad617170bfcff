// Package targets registers the import targets with the core registry.
// Import it for side effects wherever an Importer is built.
package targets
