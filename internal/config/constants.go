package config

import "time"

// Application identity
const (
	AppName    = "chemviz"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. CHEMVIZ_SERVER_PORT.
	EnvPrefix = "CHEMVIZ"

	// ConfigFileEnv overrides the config file search.
	ConfigFileEnv = "CHEMVIZ_CONFIG_FILE"
)

// Defaults shared by the server and the CLI.
const (
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 32 << 20
	DefaultHistoryLimit   = 5
	DefaultRenderTimeout  = 30 * time.Second
	DefaultDataDir        = "data"
)
