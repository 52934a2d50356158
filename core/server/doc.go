// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines
// the configuration structure for the listening port and the credentials the
// API accepts.
//
// # Configuration
//
// The Config struct defines the HTTP port, the operator API key and the
// secret used to verify account bearer tokens.
package server
