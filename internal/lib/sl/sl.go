// Package sl contains helpers for structured logging with slog.
// The main purpose is to keep error fields uniform across the service.
package sl

import "log/slog"

// Err returns an slog.Attr with the key "error" and the error text as value.
//
// Example:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
