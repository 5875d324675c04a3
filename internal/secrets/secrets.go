// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from a dotenv file. In the directory, each file is one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Supported keys: openai-api-key (file) or OPENAI_API_KEY (environment or
// .env).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// OpenAIKeyFile is the secrets-directory file holding the embedding
	// provider key.
	OpenAIKeyFile = "openai-api-key"

	// OpenAIKeyEnv is the environment and dotenv variable holding the same
	// key.
	OpenAIKeyEnv = "OPENAI_API_KEY"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFile parses a dotenv file without touching the process
// environment. A missing file returns an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// OpenAIKey returns the embedding provider key. The process environment
// wins over the dotenv file, which wins over the secrets directory.
func OpenAIKey(dirSecrets, envFile map[string]string) string {
	if v := strings.TrimSpace(os.Getenv(OpenAIKeyEnv)); v != "" {
		return v
	}
	if v := envFile[OpenAIKeyEnv]; v != "" {
		return v
	}
	return dirSecrets[OpenAIKeyFile]
}
