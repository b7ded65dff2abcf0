// Package extract pulls the catalog export, the ceremony table and the
// knowledge-base facts into staging files for the transform steps.
package extract

import (
	"os"

	"github.com/rotisserie/eris"
)

// ErrEmptyDataset is returned when an extract step yields zero rows.
var ErrEmptyDataset = eris.New("extract: empty dataset")

func emptyDataset(name string) error {
	return eris.Wrapf(ErrEmptyDataset, "extract: %s", name)
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: create %s", path)
	}
	return f, nil
}
