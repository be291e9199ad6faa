package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SetKeyInFile updates or adds a global option in the config file, keeping
// comments and layout. An existing global line for key is replaced in place;
// otherwise the line is inserted before the first section header, or appended
// if there are no sections. Keys inside [section] blocks are never matched.
func SetKeyInFile(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}

	found := false
	inGlobalSection := true
	insertIndex := len(lines) // default: append at end

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inGlobalSection && !found {
				insertIndex = i // insert before first section header
			}
			inGlobalSection = false
			continue
		}

		if !inGlobalSection {
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = optionLine(key, value)
			found = true
			break
		}
	}

	if !found {
		newLine := optionLine(key, value)
		switch {
		case insertIndex < len(lines):
			lines = slices.Insert(lines, insertIndex, newLine)
		case len(lines) > 0 && lines[len(lines)-1] == "":
			// keep the trailing newline last
			lines = append(lines[:len(lines)-1], newLine, "")
		default:
			lines = append(lines, newLine)
		}
	}

	result := strings.Join(lines, "\n")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return atomicWriteFile(path, []byte(result), 0644)
}

func optionLine(key, value string) string {
	if value == "" {
		return key
	}
	return key + " " + value
}

// atomicWriteFile writes data to a temporary file in path's directory and
// renames it over path, so readers see either the old or the new content.
func atomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
