package config

const (
	defaultListen    = ":8000"
	defaultHeartbeat = "15s"

	defaultClientTarget = "http://localhost:8000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:    defaultListen,
			Heartbeat: defaultHeartbeat,
		},
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
		// Source has no defaults: the kafka source stays off until
		// brokers and a topic are configured.
	}
}
