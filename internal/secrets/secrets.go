// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads screener credentials from a directory of
// plain-text files. Each file in the directory represents one secret:
// the filename is the key name and the file contents (trimmed) are the
// value.
//
// Supported key files: screener-auth-token, screener-user-agent.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	authTokenFile = "screener-auth-token"
	userAgentFile = "screener-user-agent"
)

// Screener holds the optional screener credentials.
type Screener struct {
	// AuthToken is sent as a session cookie for elevated access.
	AuthToken string

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// Load reads screener credentials from dir. A missing directory or
// missing files are not errors; the zero value means anonymous access.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Screener, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Screener{}, nil
		}
		return Screener{}, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	var s Screener
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name != authTokenFile && name != userAgentFile {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		switch name {
		case authTokenFile:
			s.AuthToken = value
		case userAgentFile:
			s.UserAgent = value
		}
	}

	return s, nil
}
