package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Raw is the config file as an untyped YAML tree, edited by key.
type Raw map[string]any

// Key is a dotted path into the config file, e.g. transfer.humanAgentNumber.
type Key []string

// sections are the top-level keys of Config, read from its yaml tags.
var sections = func() map[string]bool {
	m := map[string]bool{}
	t := reflect.TypeOf(Config{})
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		m[name] = true
	}
	return m
}()

// ParseKey splits a dotted config key. The first segment must name a
// config section.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config key"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config key contains empty segment: " + raw}
		}
	}
	if !sections[parts[0]] {
		return nil, &ConfigError{Message: "unknown config section: " + parts[0]}
	}
	return Key(parts), nil
}

func (k Key) String() string {
	return strings.Join(k, ".")
}

// Get returns the value at k.
func (r Raw) Get(k Key) (any, bool) {
	var cur any = map[string]any(r)
	for _, seg := range k {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at k, replacing any scalar that sits where a section
// should be.
func (r Raw) Set(k Key, v any) {
	m := map[string]any(r)
	for _, seg := range k[:len(k)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[k[len(k)-1]] = v
}

// Unset removes the value at k and reports whether it existed. Sections
// left empty are removed too.
func (r Raw) Unset(k Key) bool {
	return unset(map[string]any(r), k)
}

func unset(m map[string]any, k Key) bool {
	if len(k) == 1 {
		if _, ok := m[k[0]]; !ok {
			return false
		}
		delete(m, k[0])
		return true
	}
	child, ok := m[k[0]].(map[string]any)
	if !ok || !unset(child, k[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(m, k[0])
	}
	return true
}

// LoadRaw reads the config file for key-based editing. A missing or empty
// file yields an empty tree.
func LoadRaw(path string) (Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Raw{}, nil
		}
		return nil, err
	}

	var raw Raw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = Raw{}
	}
	return raw, nil
}

// SaveRaw writes the tree back as owner-only YAML, creating the parent
// directory.
func SaveRaw(path string, raw Raw) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
