package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// DefaultFile is the user's own export inside the data directory.
	DefaultFile = "transactions.csv"
	// SampleFile ships with the project for trying the tool.
	SampleFile = "sample_transactions.csv"
)

// ResolveInput picks the file to analyze. An explicit path always wins.
// Otherwise <dataDir>/transactions.csv is used when it exists, falling back
// to the sample file. useSample forces the sample.
func ResolveInput(dataDir, explicit string, useSample bool) (path string, sample bool, err error) {
	if explicit != "" {
		return explicit, false, nil
	}

	samplePath := filepath.Join(dataDir, SampleFile)
	if useSample {
		return samplePath, true, nil
	}

	userPath := filepath.Join(dataDir, DefaultFile)
	_, err = os.Stat(userPath)
	switch {
	case err == nil:
		return userPath, false, nil
	case errors.Is(err, fs.ErrNotExist):
		return samplePath, true, nil
	default:
		return "", false, fmt.Errorf("stat %s: %w", userPath, err)
	}
}
