package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Validate checks file names, version uniqueness and goose annotations of
// every .sql file at the root of fsys.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	var problems []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			problems = append(problems, fmt.Sprintf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			problems = append(problems, fmt.Sprintf("%s: version %s already used by %s", name, m[1], prev))
			continue
		}
		seen[m[1]] = name

		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		problems = append(problems, checkAnnotations(name, string(raw))...)
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid migrations:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func checkAnnotations(name, text string) []string {
	var problems []string
	up := strings.Index(text, "-- +goose Up")
	down := strings.Index(text, "-- +goose Down")
	switch {
	case up < 0:
		problems = append(problems, name+": missing -- +goose Up")
	case down < 0:
		problems = append(problems, name+": missing -- +goose Down")
	case down < up:
		problems = append(problems, name+": Down section precedes Up")
	}
	begins := strings.Count(text, "-- +goose StatementBegin")
	ends := strings.Count(text, "-- +goose StatementEnd")
	if begins != ends {
		problems = append(problems, fmt.Sprintf("%s: %d StatementBegin vs %d StatementEnd", name, begins, ends))
	}
	return problems
}
