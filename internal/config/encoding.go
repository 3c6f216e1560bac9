package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// loader decodes and encodes one config file format.
type loader interface {
	decode(data []byte, cfg *Config) error
	encode(cfg Config) ([]byte, error)
}

type tomlLoader struct{}

func (tomlLoader) decode(data []byte, cfg *Config) error {
	_, err := toml.Decode(string(data), cfg)
	return err
}

func (tomlLoader) encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type yamlLoader struct{}

func (yamlLoader) decode(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

func (yamlLoader) encode(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

var encodings = map[string]loader{
	".toml": tomlLoader{},
	".yaml": yamlLoader{},
	".yml":  yamlLoader{},
}

// loaderFor picks a loader by extension, falling back to TOML.
func loaderFor(path string) loader {
	if l, ok := encodings[strings.ToLower(filepath.Ext(path))]; ok {
		return l
	}
	return tomlLoader{}
}
