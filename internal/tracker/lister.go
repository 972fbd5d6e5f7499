package tracker

import (
	"os"
	"slices"
)

// Lister produces the externally visible file listing of a folder.
type Lister interface {
	List(folder string) ([]string, error)
}

// DirLister lists the regular files directly inside a folder, sorted by name.
// Subdirectories are not descended into.
type DirLister struct{}

// List implements Lister.
func (DirLister) List(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(folder string) ([]string, error)

// List calls f.
func (f ListerFunc) List(folder string) ([]string, error) {
	return f(folder)
}
