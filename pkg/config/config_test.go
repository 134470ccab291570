package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hansbonini/psxcdrom/pkg/cdrom"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psxcdrom.yaml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if got := cfg.ControllerConfig().BIOSVersion; got != cdrom.DefaultBIOSVersion {
		t.Errorf("BIOSVersion = % X", got)
	}
	if got := cfg.DiscOptions().Checksum; got != disc.ChecksumStrict {
		t.Errorf("Checksum = %v, want strict", got)
	}
}

func TestLoadFile(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	path := writeConfig(t, `verbose: true
region: europe
checksum_policy: lenient
hunk_cache: 4
xa_sectors: 300
bios_version: "94092494"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Verbose || cfg.XASectors != 300 {
		t.Errorf("cfg = %+v", cfg)
	}
	opts := cfg.DiscOptions()
	if opts.Checksum != disc.ChecksumLenient || opts.CacheHunks != 4 {
		t.Errorf("DiscOptions = %+v", opts)
	}
	cc := cfg.ControllerConfig()
	if cc.Region != disc.RegionEurope || cc.BIOSVersion != [4]byte{0x94, 0x09, 0x24, 0x94} {
		t.Errorf("ControllerConfig = %+v", cc)
	}
	if !strings.Contains(buf.String(), "Loaded configuration") {
		t.Error("load not logged")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"region", "region: mars\n"},
		{"policy", "checksum_policy: maybe\n"},
		{"cache", "hunk_cache: 0\n"},
		{"xa sectors", "xa_sectors: -1\n"},
		{"version", "bios_version: \"97\"\n"},
		{"syntax", "region: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.text)); err == nil {
				t.Error("Load succeeded")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
