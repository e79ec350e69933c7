// File: configuration.go
//
// Optional TOML configuration for the demo server. Without a
// configuration file the defaults reproduce the flagless behavior:
// scan ports 9000-9200 and log at info level.

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/hxhue/coroutine-http-server/aio"
)

// tomlConfig describes the TOML configuration file.
type tomlConfig struct {
	Server serverConf
	Log    logConf
}

// serverConf describes the [server] block.
type serverConf struct {
	MinPort    int `toml:"min_port"`
	MaxPort    int `toml:"max_port"`
	BufferSize int `toml:"buffer_size"`
}

// logConf describes the [log] block.
type logConf struct {
	Level  string
	Format string
}

func defaultConfig() tomlConfig {
	return tomlConfig{
		Server: serverConf{
			MinPort:    9000,
			MaxPort:    9200,
			BufferSize: aio.DefaultBufferSize,
		},
		Log: logConf{Level: "info", Format: "text"},
	}
}

// loadConfig returns the defaults, overridden by the TOML file when one
// is given.
func loadConfig(path string) (tomlConfig, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return conf, fmt.Errorf("read configuration %q: %w", path, err)
	}
	if conf.Server.MinPort > conf.Server.MaxPort {
		return conf, fmt.Errorf("configuration: min_port %d above max_port %d",
			conf.Server.MinPort, conf.Server.MaxPort)
	}
	return conf, nil
}

// setupLogging applies the [log] block to the standard logger.
func setupLogging(conf logConf) error {
	lvl, err := log.ParseLevel(conf.Level)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	log.SetLevel(lvl)
	if conf.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
