// Package env provides configurations shared by wire commands.
package env

import (
	"flag"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so it is not exposed on the broker.
const AppID = "wire.go"

// Config provides common options of commands.
type Config struct {
	// MQTTBrokerURL specifies the broker and topic prefix.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// ScopeAddr is the listen address of the websocket scope server.
	ScopeAddr string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/wire/",
	ScopeAddr:     ":8080",
}

func init() {
	if val := os.Getenv("WIRE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("WIRE_SCOPE_ADDR"); val != "" {
		defaultConfig.ScopeAddr = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.ScopeAddr, "scope-addr", defaultConfig.ScopeAddr, "Listen address of scope server, empty to disable.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

var machineID = machineid.ProtectedID

// DeviceName derives a stable device name for this machine.
func DeviceName(prefix string) string {
	id, err := machineID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		if id, err = os.Hostname(); err != nil {
			return prefix
		}
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return prefix + id
}
