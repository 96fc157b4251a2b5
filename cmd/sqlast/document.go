package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/pthm/sqlast/resolve"
)

// document is an operation read from one source.
type document struct {
	Source    string
	Operation resolve.Operation
}

// loadDocuments reads one operation per path. No paths, or "-", reads stdin.
func loadDocuments(fsys afero.Fs, stdin io.Reader, paths []string) ([]document, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	docs := make([]document, 0, len(paths))
	for _, path := range paths {
		var (
			data []byte
			err  error
		)
		if path == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = afero.ReadFile(fsys, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		op, err := resolve.ParseOperation(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		docs = append(docs, document{Source: path, Operation: op})
	}
	return docs, nil
}
