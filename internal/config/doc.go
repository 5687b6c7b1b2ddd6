// Package config loads, normalizes, and validates easyaisubbing configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves the Gemini API credential chain:
// the GEMINI_API_KEY environment variable wins, then gemini.api_key from the
// config file, then the first non-empty line of gemini.key_file, then a
// GEMINI_API_KEY entry in a local .env file. The Config type centralizes every
// knob the CLI and worker need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
