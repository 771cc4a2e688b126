package runner

import (
	"fmt"
	"os"
	"strings"
)

// envFromFile reads a KEY=VALUE file into env entries for the child
// process. Blank lines and # comments are ignored. An empty path yields
// no entries.
func envFromFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	var env []string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			return nil, fmt.Errorf("env file %s line %d: expected KEY=VALUE", path, i+1)
		}
		env = append(env, line)
	}
	return env, nil
}
