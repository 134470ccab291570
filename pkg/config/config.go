// Package config loads the optional YAML configuration of the psxcdrom tool.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hansbonini/psxcdrom/pkg/cdrom"
	"github.com/hansbonini/psxcdrom/pkg/chd"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// DefaultXASectors is how many sectors an XA rip reads when neither the
// file nor the command line says otherwise.
const DefaultXASectors = 75 * 60

// Config is the on-disk configuration.
type Config struct {
	Verbose        bool   `yaml:"verbose"`
	Region         string `yaml:"region"`
	ChecksumPolicy string `yaml:"checksum_policy"`
	HunkCache      int    `yaml:"hunk_cache"`
	XASectors      int    `yaml:"xa_sectors"`
	BIOSVersion    string `yaml:"bios_version"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Region:         "auto",
		ChecksumPolicy: "strict",
		HunkCache:      chd.DefaultCacheHunks,
		XASectors:      DefaultXASectors,
		BIOSVersion:    hex.EncodeToString(cdrom.DefaultBIOSVersion[:]),
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadConfig, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, common.FormatError(common.ErrFailedToParseConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, common.FormatError(common.ErrFailedToParseConfig, err)
	}
	common.LogInfo(common.InfoConfigLoaded, path)
	return cfg, nil
}

// Validate checks every field can be converted.
func (c *Config) Validate() error {
	if _, ok := disc.ParseRegion(c.Region); !ok {
		return fmt.Errorf("unknown region %q", c.Region)
	}
	if _, ok := disc.ParseChecksumPolicy(c.ChecksumPolicy); !ok {
		return fmt.Errorf("unknown checksum policy %q", c.ChecksumPolicy)
	}
	if c.HunkCache < 1 {
		return fmt.Errorf("hunk_cache must be positive, got %d", c.HunkCache)
	}
	if c.XASectors < 1 {
		return fmt.Errorf("xa_sectors must be positive, got %d", c.XASectors)
	}
	if _, err := c.Version(); err != nil {
		return err
	}
	return nil
}

// DiscOptions converts the disc related fields.
func (c *Config) DiscOptions() disc.Options {
	policy, _ := disc.ParseChecksumPolicy(c.ChecksumPolicy)
	return disc.Options{Checksum: policy, CacheHunks: c.HunkCache}
}

// ControllerConfig converts the controller related fields.
func (c *Config) ControllerConfig() cdrom.Config {
	region, _ := disc.ParseRegion(c.Region)
	version, err := c.Version()
	if err != nil {
		version = cdrom.DefaultBIOSVersion
	}
	return cdrom.Config{BIOSVersion: version, Region: region}
}

// Version decodes bios_version, eight hex digits.
func (c *Config) Version() ([4]byte, error) {
	var v [4]byte
	b, err := hex.DecodeString(c.BIOSVersion)
	if err != nil || len(b) != len(v) {
		return v, fmt.Errorf("bios_version must be 8 hex digits, got %q", c.BIOSVersion)
	}
	copy(v[:], b)
	return v, nil
}
