// Package logger provides slog attribute helpers shared by courier components.
//
// All helpers return an empty slog.Attr for zero values, so call sites never
// need nil checks:
//
//	log.Error("transport error, stopping publisher",
//		logger.Component("publisher"),
//		logger.Error(err),
//	)
package logger
