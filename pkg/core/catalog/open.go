package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	log "github.com/sirupsen/logrus"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open opens the catalog at path with the named driver. An empty driver is
// inferred from the file extension.
func Open(driver, path string, logger *log.Logger) (Store, error) {
	if driver == "" {
		driver = DriverFromPath(path)
	}
	switch strings.ToLower(driver) {
	case DriverJSON:
		s, err := NewFileStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", coreerrors.ErrUnknownDriver, driver)
}

// DriverFromPath guesses the driver from a catalog file name.
func DriverFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite
	default:
		return DriverJSON
	}
}
