package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon and CLI settings. Files ending in .yaml/.yml are
// parsed as YAML, everything else as HCL.
type Config struct {
	// Listen is the daemon's HTTP listen address.
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty" hcl:"listen,optional"`

	// StorePath is the catalog store file. Empty means an in-memory store.
	StorePath string `json:"store_path,omitempty" yaml:"store_path,omitempty" hcl:"store_path,optional"`

	// RequestTimeoutMS bounds each page-channel round trip.
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty" yaml:"request_timeout_ms,omitempty" hcl:"request_timeout_ms,optional"`

	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" hcl:"debug,optional"`
}

// Default returns the built-in settings used when no config file exists.
func Default() *Config {
	return &Config{
		Listen:           "127.0.0.1:8731",
		RequestTimeoutMS: 3000,
	}
}

// RequestTimeout returns the configured round-trip bound as a duration.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Load reads a config file (YAML or HCL by extension). A missing file
// yields the defaults; a present-but-broken file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return cfg, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return cfg, nil
}
