package console_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/opst/podconsole/pkg/configs/console"
	"github.com/opst/podconsole/pkg/utils/try"
)

func TestLoad(t *testing.T) {
	ca := strings.TrimSpace(string(try.To(os.ReadFile("./testdata/ca.b64")).OrFatal(t)))

	for name, testcase := range map[string]struct {
		path     string
		logLevel string
	}{
		"it can be created from a YAML config file": {path: "./testdata/config.yaml", logLevel: "debug"},
		"it can be created from a TOML config file": {path: "./testdata/config.toml", logLevel: "info"},
	} {
		t.Run(name, func(t *testing.T) {
			result := try.To(console.Load(testcase.path)).OrFatal(t)

			if result.ApiRoot != "https://console.example.com/api" {
				t.Errorf("unmatch apiRoot: %s", result.ApiRoot)
			}
			if result.Cert.CA != ca {
				t.Errorf("unmatch cert.ca: %s", result.Cert.CA)
			}
			if result.ServerPort != "9090" {
				t.Errorf("unmatch serverPort: %s", result.ServerPort)
			}
			if result.LogLevel != testcase.logLevel {
				t.Errorf("unmatch loglevel: %s", result.LogLevel)
			}
			if w := time.Duration(result.Cache.RequestWindow); w != 3*time.Second {
				t.Errorf("unmatch cache.requestWindow: %s", w)
			}
			if w := time.Duration(result.Cache.SessionWindow); w != time.Minute {
				t.Errorf("unmatch cache.sessionWindow: %s", w)
			}
			if err := result.Verify(); err != nil {
				t.Errorf("loaded config is not valid: %v", err)
			}
		})
	}

	t.Run("omitted fields get defaults", func(t *testing.T) {
		result := try.To(console.Load("./testdata/minimum.yaml")).OrFatal(t)

		if result.ServerPort != console.DefaultServerPort {
			t.Errorf("unmatch serverPort: %s", result.ServerPort)
		}
		if result.Cache.RequestWindow != 0 || result.Cache.SessionWindow != 0 {
			t.Errorf("windows are set: %+v", result.Cache)
		}
		if result.Cert.CA != "" {
			t.Errorf("cert.ca is set: %s", result.Cert.CA)
		}
	})

	t.Run("malformed duration is an error", func(t *testing.T) {
		_, err := console.Unmarshal([]byte("apiRoot: http://localhost\ncache:\n  requestWindow: soon\n"))
		if err == nil {
			t.Error("no error")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := console.Load("./testdata/not-exist.yaml")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	ca := strings.TrimSpace(string(try.To(os.ReadFile("./testdata/ca.b64")).OrFatal(t)))

	for name, testcase := range map[string]struct {
		config   console.Config
		expected error
	}{
		"profile with CA is valid": {
			config: console.Config{Profile: console.Profile{
				ApiRoot: "https://console.example.com/api", Cert: console.Cert{CA: ca},
			}},
		},
		"profile without CA is valid": {
			config: console.Config{Profile: console.Profile{ApiRoot: "http://localhost:3000/api"}},
		},
		"relative apiRoot is invalid": {
			config:   console.Config{Profile: console.Profile{ApiRoot: "/api"}},
			expected: console.ErrProfileInvalid,
		},
		"CA not in base64 is invalid": {
			config: console.Config{Profile: console.Profile{
				ApiRoot: "http://localhost:3000/api", Cert: console.Cert{CA: "not base64!"},
			}},
			expected: console.ErrProfileInvalid,
		},
		"CA not in PEM is invalid": {
			config: console.Config{Profile: console.Profile{
				ApiRoot: "http://localhost:3000/api", Cert: console.Cert{CA: "bm90IGEgcGVt"},
			}},
			expected: console.ErrProfileInvalid,
		},
		"negative window is invalid": {
			config: console.Config{
				Profile: console.Profile{ApiRoot: "http://localhost:3000/api"},
				Cache:   console.CacheConfig{RequestWindow: console.Duration(-time.Second)},
			},
			expected: console.ErrConfigInvalid,
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.config.Verify()
			if testcase.expected == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testcase.expected) {
				t.Errorf("unexpected error: (actual, expected) = (%v, %v)", err, testcase.expected)
			}
		})
	}
}
