// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// DefaultPath is used when neither --env-file nor EC2SCHED_ENV_FILE is set.
const DefaultPath = ".env"

var (
	keyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// bareRe matches values that read back unchanged without quotes.
	bareRe = regexp.MustCompile(`^[^\s#"'\\$]*$`)
)

// ErrInvalidKey is returned by Set for keys a dotenv parser would not read
// back.
var ErrInvalidKey = errors.New("invalid env key")

// Path resolves the env file location: the explicit value, then
// EC2SCHED_ENV_FILE, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p, ok := os.LookupEnv("EC2SCHED_ENV_FILE"); ok && p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path into the process environment. Variables that are already
// set win over the file. A missing file is not an error.
func Load(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debugf("env file %s not found, using process environment only", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	log.Debugf("loaded env file %s", path)
	return nil
}

// Read parses path without touching the process environment.
func Read(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return m, nil
}

// Set rewrites the line(s) assigning key in path, leaving every other line
// untouched. If key is absent the assignment is appended. The file is
// created when missing and replaced atomically otherwise. The variable is
// also exported into the current process.
func Set(path, key, value string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	line, err := formatLine(key, value)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o600)
	var content string
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if fi, statErr := os.Stat(path); statErr == nil {
			mode = fi.Mode().Perm()
		}
		content = rewrite(string(raw), key, line)
	case errors.Is(err, fs.ErrNotExist):
		content = line + "\n"
	default:
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	if err := writeAtomic(path, []byte(content), mode); err != nil {
		return err
	}

	log.WithField("file", path).Debugf("persisted %s", key)
	return os.Setenv(key, value)
}

// rewrite replaces each assignment of key in content with line. Assignments
// may carry an "export " prefix, which is kept.
func rewrite(content, key, line string) string {
	assign := regexp.MustCompile(`^(\s*)(export\s+)?` + regexp.QuoteMeta(key) + `\s*[=:]`)

	lines := strings.Split(content, "\n")
	found := false
	for i, l := range lines {
		m := assign.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		lines[i] = m[1] + m[2] + line
		if strings.HasSuffix(l, "\r") {
			lines[i] += "\r"
		}
		found = true
	}

	if found {
		return strings.Join(lines, "\n")
	}

	eol := "\n"
	if strings.Contains(content, "\r\n") {
		eol = "\r\n"
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += eol
	}
	return content + line + eol
}

// formatLine renders KEY=value, quoting the value through godotenv only
// when it holds whitespace, '#', quotes, '$' or backslashes.
func formatLine(key, value string) (string, error) {
	if bareRe.MatchString(value) {
		return key + "=" + value, nil
	}
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("failed to format %s: %w", key, err)
	}
	return line, nil
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
