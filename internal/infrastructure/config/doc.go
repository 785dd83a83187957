// Package config loads and validates GAudit Core configuration.
//
// Configuration comes from three layers, each overriding the previous:
//
//  1. Hardcoded defaults (always valid on their own)
//  2. An optional YAML file
//  3. GAUDIT_* environment variables
//
// The database path deserves care: pools are bound to the location they
// were constructed with, so the path is resolved exactly once at startup
// and never mutated afterwards. Use GAUDIT_DB_PATH to relocate the store.
package config
