// Package config handles configuration loading for offscreen-server.
//
// Configuration is loaded from a YAML file with environment variable
// expansion (${VAR_NAME}) and Go duration syntax for time fields:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	database:
//	  path: "/var/lib/offscreen/offscreen.db"
//	auth:
//	  jwt_secret: "${OFFSCREEN_JWT_SECRET}"
//	  token_ttl: "24h"
//	engine:
//	  timezone: "Europe/Madrid"
//	  overuse_threshold_seconds: 7200
//	  encourage_completed_count: 3
//	  dedupe_window: "5m"
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// Load() validates required fields (HTTP address, database path, a JWT
// secret of at least 32 bytes) and that engine.timezone names a real IANA
// zone. The zone governs which calendar day a usage session counts toward.
package config
