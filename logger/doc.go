// Package logger builds the zap loggers used across previewctl.
//
// The provisioning workflows print their operator-facing progress to the
// console themselves; this logger carries the structured diagnostic trail
// underneath them (API calls, exit codes, fallback attempts). Development
// mode gives colored human-readable output, production mode gives JSON
// with ISO 8601 timestamps.
//
// Usage:
//
//	log, err := logger.New("production", "info")
//	if err != nil {
//	    return err
//	}
//	log.Info("sandbox created", zap.String("sandbox_id", id))
package logger
