package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
)

//go:embed *.sql
var Files embed.FS

type Script struct {
	Name string
	Sql  string
}

// Scripts returns every migration in file name order, each one is safe to run again
func Scripts() ([]Script, error) {
	names, err := fs.Glob(Files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("error listing migrations: %w", err)
	}
	slices.Sort(names)

	res := make([]Script, len(names))
	for i, name := range names {
		b, err := Files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("error reading migration %s: %w", name, err)
		}
		res[i] = Script{Name: name, Sql: string(b)}
	}
	return res, nil
}
