package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key accepted from station operators and devices.
	ApiKey string `mapstructure:"api_key" default:""`
	// JWTSecret verifies bearer tokens issued by the account service.
	JWTSecret string `mapstructure:"jwt_secret" default:""`
}

// AuthEnabled reports whether any credential is configured.
// With neither an API key nor a JWT secret the API is left open.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != "" || c.JWTSecret != ""
}
