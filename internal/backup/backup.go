package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Run copies the tracking database file into dir before the store opens it,
// named by timestamp (SS_MM_HH_dd_mm_yy.db). A missing source file is the
// normal first-run case and returns "" without an error. Backups are plain
// file copies; pruning old ones is left to the operator.
func Run(dbPath, dir string) (string, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := time.Now().Format("05_04_15_02_01_06") + ".db"
	dst := filepath.Join(dir, name)

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("flush backup: %w", err)
	}
	return dst, nil
}
