package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const scheme = "sqlite://"

type dsn struct {
	path   string
	query  string
	memory bool
}

// name is the database as the user wrote it, without connection pragmas.
func (d dsn) name() string {
	if d.query == "" {
		return d.path
	}
	return d.path + "?" + d.query
}

// driver adds the pragmas every pooled connection needs. modernc runs each
// _pragma parameter when it opens a connection.
func (d dsn) driver() string {
	pragmas := []string{"busy_timeout(30000)", "foreign_keys(1)"}
	if !d.memory {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	params := make([]string, 0, len(pragmas)+1)
	if d.query != "" {
		params = append(params, d.query)
	}
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return d.path + "?" + strings.Join(params, "&")
}

// parseDSN turns sqlite://path[?query] into a modernc driver DSN. Relative
// paths are anchored to the working directory.
func parseDSN(raw string) (dsn, error) {
	if !strings.HasPrefix(raw, scheme) {
		return dsn{}, fmt.Errorf("invalid sqlite DSN %q, expected %s", raw, scheme)
	}
	rest := strings.TrimPrefix(raw, scheme)
	if rest == "" {
		return dsn{}, fmt.Errorf("sqlite DSN %q has no path", raw)
	}

	path, query, _ := strings.Cut(rest, "?")
	if path == ":memory:" {
		return dsn{path: path, query: query, memory: true}, nil
	}

	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return dsn{}, fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(unescaped) && !strings.HasPrefix(unescaped, "./") {
		unescaped = "./" + unescaped
	}
	if query != "" {
		if _, err := url.ParseQuery(query); err != nil {
			return dsn{}, fmt.Errorf("parsing DSN query: %w", err)
		}
	}
	return dsn{path: unescaped, query: query}, nil
}
