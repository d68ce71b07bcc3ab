package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"
)

type Application struct {
	BaseURL            string    `koanf:"baseurl" yaml:"baseurl"`
	TokenPath          string    `koanf:"tokenpath" yaml:"tokenpath"`
	DatabasePath       string    `koanf:"databasepath" yaml:"databasepath"`
	ServiceAccountFile string    `koanf:"serviceaccountfile" yaml:"serviceaccountfile"`
	Timezone           string    `koanf:"timezone" yaml:"timezone"`
	Calendars          Calendars `koanf:"calendars" yaml:"calendars"`
	Sync               Sync      `koanf:"sync" yaml:"sync"`
}

// Calendars holds the ids of the three projection calendars.
type Calendars struct {
	Mission  string `koanf:"mission" yaml:"mission"`
	Upcoming string `koanf:"upcoming" yaml:"upcoming"`
	Patch    string `koanf:"patch" yaml:"patch"`
}

type Sync struct {
	FetchRetries int `koanf:"fetchretries" yaml:"fetchretries"`
}

// Dir is the configuration directory, ~/.config/synacksync on Linux.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(base, "synacksync")
}

// DefaultPath is the default location of the configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func defaults() Application {
	return Application{
		BaseURL:      "https://platform.synack.com",
		TokenPath:    "/tmp/synacktoken",
		DatabasePath: filepath.Join(Dir(), "tasks.db"),
		Sync:         Sync{FetchRetries: 3},
	}
}

// Load builds the configuration from struct defaults, the YAML file at path
// (missing file is fine), and SYNACKSYNC_* environment overrides.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config defaults: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "SYNACKSYNC_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SYNACKSYNC_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func Save(app Application, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := yamlv3.Marshal(app)
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("could not write config file %s: %w", path, err)
	}
	return nil
}

// ValidateForSync checks that everything a sync run needs is present.
func (a Application) ValidateForSync() error {
	if a.ServiceAccountFile == "" {
		return fmt.Errorf("service account file is not configured; run setup first")
	}
	if _, err := os.Stat(a.ServiceAccountFile); err != nil {
		return fmt.Errorf("service account file not found at %s", a.ServiceAccountFile)
	}
	if a.Calendars.Mission == "" || a.Calendars.Upcoming == "" || a.Calendars.Patch == "" {
		return fmt.Errorf("one or more calendar ids are missing; run setup first")
	}
	return nil
}
