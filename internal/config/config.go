// Package config holds the single documented configuration surface of the
// audio gateway core: SCO routing mode.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blang/semver"
	"github.com/youtube/vitess/go/ioutil2"
)

// SCORouting selects who owns the SCO audio link.
type SCORouting string

const (
	// RoutingHCI means SCO audio is owned by kernel/controller audio
	// routing; the core's Play control-plane command is refused.
	RoutingHCI SCORouting = "HCI"
	// RoutingPCM means SCO audio is routed to a PCM interface the core
	// is allowed to open on behalf of a Play request.
	RoutingPCM SCORouting = "PCM"
)

// formatVersion is bumped whenever the on-disk layout of Config changes.
var formatVersion = semver.MustParse("1.0.0")

// Config is the General section of the daemon's persisted configuration.
type Config struct {
	SCORouting SCORouting `json:"sco_routing"`
}

type onDisk struct {
	FormatVersion string `json:"format_version"`
	SCORouting    SCORouting `json:"sco_routing"`
}

// Default returns the documented default configuration (§6: HCI).
func Default() Config {
	return Config{SCORouting: RoutingHCI}
}

// Load reads the config file at path, falling back to Default() if it does
// not exist. A format_version newer than this binary understands is an
// error rather than a silent misinterpretation.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var d onDisk
	if err := json.Unmarshal(data, &d); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if d.FormatVersion != "" {
		v, err := semver.Parse(d.FormatVersion)
		if err != nil {
			return Config{}, fmt.Errorf("config: bad format_version %q: %w", d.FormatVersion, err)
		}
		if v.GT(formatVersion) {
			return Config{}, fmt.Errorf("config: format_version %s newer than supported %s", v, formatVersion)
		}
	}

	cfg := Config{SCORouting: d.SCORouting}
	if cfg.SCORouting == "" {
		cfg.SCORouting = RoutingHCI
	}
	return cfg, nil
}

// Save persists cfg to path atomically (rename-on-write), so a crash
// mid-write never leaves a truncated config behind.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", filepath.Dir(path), err)
	}
	d := onDisk{FormatVersion: formatVersion.String(), SCORouting: cfg.SCORouting}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return ioutil2.WriteFileAtomic(path, data, 0600)
}
