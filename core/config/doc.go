// Package config provides configuration management for the umbrella station.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, JWT secret)
//   - Database: ledger database connection details (mysql, sqlite)
//   - Storage: MinIO credentials and the event journal bucket
//   - Log: Logging level and format
//   - Broker: MQTT or AMQP connection and topics
//   - Rental: grace period, occupancy encoding, transition policy, overdue schedule
//   - Identity: RFID tag table
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Rental.GracePeriod)
package config
