// Package logging builds the slog loggers used across hvproxy.
//
// It offers a human-oriented console handler and a machine-oriented JSON
// handler, file fan-out next to stdout/stderr, and small attribute helpers so
// call sites stay terse. Component loggers stamp a stable "component" field
// that the console handler promotes into the message prefix.
package logging
