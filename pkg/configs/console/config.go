package console

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrProfileInvalid = errors.New("console profile is invalid")
var ErrConfigInvalid = errors.New("console config is invalid")

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty" toml:"ca,omitempty"`
}

// Profile is where the platform API is.
type Profile struct {
	// endpoint of the platform API
	ApiRoot string `yaml:"apiRoot" toml:"apiRoot"`

	// cert is a certificate for the platform API.
	Cert Cert `yaml:"cert" toml:"cert"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	return nil
}

// Duration is time.Duration written as "5s", "1m30s" and so on.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type CacheConfig struct {
	// how long a response is shared. zero means default.
	RequestWindow Duration `yaml:"requestWindow,omitempty" toml:"requestWindow,omitempty"`

	// how long a session check is shared. zero means default.
	SessionWindow Duration `yaml:"sessionWindow,omitempty" toml:"sessionWindow,omitempty"`
}

type Config struct {
	Profile `yaml:",inline"`

	ServerPort string      `yaml:"serverPort" toml:"serverPort"`
	LogLevel   string      `yaml:"loglevel,omitempty" toml:"loglevel,omitempty"`
	Cache      CacheConfig `yaml:"cache,omitempty" toml:"cache,omitempty"`
}

const DefaultServerPort = "8080"

// Verify checks the profile and windows.
func (c *Config) Verify() error {
	if err := c.Profile.Verify(); err != nil {
		return err
	}
	if c.Cache.RequestWindow < 0 {
		return fmt.Errorf("%w: cache.requestWindow is negative", ErrConfigInvalid)
	}
	if c.Cache.SessionWindow < 0 {
		return fmt.Errorf("%w: cache.sessionWindow is negative", ErrConfigInvalid)
	}
	return nil
}

// Load reads the config file at path.
//
// Files named *.toml are read as TOML, and others as YAML.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return UnmarshalTOML(content)
	}
	return Unmarshal(content)
}

// Unmarshal YAML.
func Unmarshal(conf []byte) (*Config, error) {
	var out Config
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	return withDefaults(&out), nil
}

func UnmarshalTOML(conf []byte) (*Config, error) {
	var out Config
	if err := toml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	return withDefaults(&out), nil
}

func withDefaults(c *Config) *Config {
	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
	}
	return c
}
