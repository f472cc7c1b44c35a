// Package config provides centralized configuration management for the dashboard.
// It loads configuration from multiple sources, validates it, and exposes a typed
// Config to the rest of the application.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file: $STATEDASH_CONFIG, config.yaml or configs/config.yaml
//  3. Environment variables, including those loaded from a .env file
//
// # Environment Variables
//
// All environment variables follow the pattern STATEDASH_<SECTION>_<FIELD>:
//
//	STATEDASH_SERVER_PORT=8080
//	STATEDASH_LOGGING_LEVEL=debug
//	STATEDASH_DATASET_FETCH_TIMEOUT=30s
//	STATEDASH_DATASET_LOAD_SAMPLE_ON_START=true
//	STATEDASH_SECURITY_ALLOWED_ORIGINS=http://localhost:8080,http://127.0.0.1:8080
//
// # Validation
//
// Load rejects out-of-range ports, non-positive timeouts and limits, and unknown
// log levels, formats, outputs and exporters.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// Tests use Default() directly, or point STATEDASH_CONFIG at a temporary YAML file.
package config
