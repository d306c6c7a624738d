// Package logging provides structured logging for OpsDeck Core.
//
// It wraps log/slog with consistent defaults: JSON output for production,
// text for development, service/version attributes on every entry, and
// level-based filtering configured from config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log password hashes, session secrets, or API keys. When a key must
// be referenced, log only its presence or a short prefix.
package logging
