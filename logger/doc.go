// Package logger provides structured logging on top of zerolog.
//
// Output is either human-readable console lines or JSON, selected by
// configuration:
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// Components take a scoped logger and log with map fields:
//
//	log := logger.WithComponent("resolver")
//	log.Info("batch resolved", logger.Fields("size", 20, "signed", 19))
package logger
