// ABOUTME: Package documentation for the tool registry and catalogs.
// ABOUTME: Explains tool identity, registration timing, and read-only views.

// Package registry holds the process-wide tool registry and the resource and
// prompt catalogs.
//
// # Tools
//
// Tools are registered once during startup composition (see internal/tools)
// and receive a generated uuid id that is stable only for the process
// lifetime. Names are not unique; looking up a tool always goes through its
// id. Listings return descriptor copies with the handler stripped, so no
// caller can hold a mutable reference into the registry.
//
// # Catalogs
//
// Resources and prompts are static discovery data: built-in samples are
// seeded at startup, and an optional TOML manifest can add more entries or
// disable whole tool packs before registration. After startup the catalogs
// are only read, which makes unsynchronized concurrent reads safe; the
// RWMutex exists for the startup phase and for tests that build catalogs
// concurrently.
package registry
