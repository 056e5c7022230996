// Package codec encodes flat string maps for persistent records.
package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec serializes a map of string to string.
type Codec interface {
	Encode(map[string]string) ([]byte, error)
	Decode([]byte) (map[string]string, error)
}

// ByName returns the codec for a config value ("json" or "yaml").
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "yaml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// JSON is the codec of the on-flash credential record.
type JSON struct{}

func (JSON) Encode(m map[string]string) ([]byte, error) {
	return json.Marshal(m)
}

func (JSON) Decode(data []byte) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return m, nil
}

// YAML writes the same record as a YAML mapping.
type YAML struct{}

func (YAML) Encode(m map[string]string) ([]byte, error) {
	return yaml.Marshal(m)
}

func (YAML) Decode(data []byte) (map[string]string, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("record is not a mapping")
	}
	return m, nil
}
