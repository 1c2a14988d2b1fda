// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Components take a plain *zap.Logger; Named hands one out per component
// so log lines carry "fsclient", "confirm" or "http".
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromSettings("info", false))
//	if err != nil {
//	    return err
//	}
//	client, err := fsclient.New(fsclient.Config{Root: ".", Logger: logger.Named("fsclient")})
//	logger.Info("Server starting", zap.String("port", "8085"))
package logging
