// Package config loads and validates OpsDeck Core configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (OPSDECK_SECTION_KEY pattern). Defaults are applied first, then the file,
// then the environment, and the merged result is validated before use.
//
// Secrets (the JWT signing secret, assistant API keys) are never stored in
// the YAML file. The signing secret comes from OPSDECK_JWT_SECRET; assistant
// keys come from their provider-specific environment variables or from
// session-only overrides set through the settings API.
package config
