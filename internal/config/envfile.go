package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"kitsusync/internal/services"
)

// EnvFile holds key=value pairs read from a dotenv-style file. Values are
// kept as strings; nothing is coerced or expanded.
type EnvFile struct {
	path   string
	values map[string]string
}

// LoadEnvFile reads path into an EnvFile. A missing file is reported with an
// error satisfying errors.Is(err, fs.ErrNotExist).
func LoadEnvFile(path string) (*EnvFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer file.Close()

	values, err := ParseEnv(file)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "env file", path, err)
	}
	return &EnvFile{path: path, values: values}, nil
}

// ParseEnv parses key=value lines. Blank lines and lines starting with '#'
// are skipped, each remaining line is split on its first '=', and later
// occurrences of a key replace earlier ones.
func ParseEnv(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected KEY=value", lineNo)
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

// Path returns the file the values were read from.
func (e *EnvFile) Path() string {
	if e == nil {
		return ""
	}
	return e.path
}

// Lookup returns the value of the first key present.
func (e *EnvFile) Lookup(keys ...string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, key := range keys {
		if value, ok := e.values[key]; ok {
			return value, true
		}
	}
	return "", false
}

// Require returns the value of the first key present, or a configuration
// error naming every accepted key.
func (e *EnvFile) Require(keys ...string) (string, error) {
	if value, ok := e.Lookup(keys...); ok {
		return value, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "config", "env file",
		fmt.Sprintf("%s is missing %s", e.Path(), strings.Join(keys, " or ")), nil)
}
