package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "State Indicator Dashboard"
	AppVersion  = "1.0.0"
	ServiceName = "statedash"

	// Server
	DefaultPort      = 8080
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Dataset sources
	DefaultFetchTimeout    = 20 * time.Second
	DefaultMaxDatasetBytes = 10 << 20 // 10MB

	// Dashboard view
	DefaultTopBars   = 8
	DefaultTableRows = 20

	// WebSocket
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/statedash.log"

	// Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
