package config

// Config represents the persistent pulse configuration stored as
// config.toml in the .pulse/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	Client  ClientConfig `toml:"client"`
	Source  SourceConfig `toml:"source"`
}

// ServerConfig holds hub server settings.
type ServerConfig struct {
	// Listen is the address the hub binds to (e.g. ":8000").
	Listen string `toml:"listen,omitempty"`

	// Heartbeat is the keep-alive interval as a duration string
	// (e.g. "15s"). "0" disables heartbeats.
	Heartbeat string `toml:"heartbeat,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a
// running hub (pulse send, pulse tail). Target is a full URL.
type ClientConfig struct {
	Target string `toml:"target,omitempty"`
}

// SourceConfig holds settings for the optional Kafka event source.
// The source is enabled when both Brokers and Topic are set.
type SourceConfig struct {
	// Brokers is a comma-separated list of bootstrap broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
	Group   string `toml:"group,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.heartbeat": {
		get: func(c *Config) string { return c.Server.Heartbeat },
		set: func(c *Config, v string) error { c.Server.Heartbeat = v; return nil },
	},
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"source.brokers": {
		get: func(c *Config) string { return c.Source.Brokers },
		set: func(c *Config, v string) error { c.Source.Brokers = v; return nil },
	},
	"source.topic": {
		get: func(c *Config) string { return c.Source.Topic },
		set: func(c *Config, v string) error { c.Source.Topic = v; return nil },
	},
	"source.group": {
		get: func(c *Config) string { return c.Source.Group },
		set: func(c *Config, v string) error { c.Source.Group = v; return nil },
	},
}
