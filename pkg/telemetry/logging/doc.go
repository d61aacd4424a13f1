// Package logging configures the process-wide slog logger from the
// logging section of the configuration file, with optional redaction of
// API keys and other credential material in log output.
package logging
