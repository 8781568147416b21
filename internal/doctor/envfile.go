package doctor

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
)

// EnvKeyNames reads a KEY=VALUE file and returns the sorted key names.
// Blank lines, # comments and lines without '=' are skipped. Values are
// discarded as soon as each line is split and never leave this function.
// Lines may be of any length.
func EnvKeyNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := map[string]struct{}{}
	r := bufio.NewReader(f)
	for {
		raw, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		addKey(seen, raw)
		if err != nil {
			break
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func addKey(seen map[string]struct{}, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	key, _, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	if key = strings.TrimSpace(key); key != "" {
		seen[key] = struct{}{}
	}
}
