package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/frahmantamala/pennytrack/pkg/fileutil"
	"golang.org/x/sync/errgroup"
)

// BackupDirName is the directory a backup taken at now is written to.
func BackupDirName(now time.Time) string {
	return "backup_" + now.Format("20060102_150405")
}

// Backup copies every existing file of files into root/backup_<timestamp>/
// and returns that directory with the copied file names.
func Backup(ctx context.Context, root string, files []string, now time.Time, logger *slog.Logger) (string, []string, error) {
	dir := filepath.Join(root, BackupDirName(now))

	var present []string
	for _, f := range files {
		if fileutil.Exists(f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return "", nil, fmt.Errorf("nothing to back up")
	}

	g, _ := errgroup.WithContext(ctx)
	for _, src := range present {
		g.Go(func() error {
			dst := filepath.Join(dir, filepath.Base(src))
			if err := fileutil.Copy(src, dst); err != nil {
				return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("backup failed", "dir", dir, "error", err)
		return "", nil, err
	}

	copied := make([]string, len(present))
	for i, p := range present {
		copied[i] = filepath.Base(p)
	}
	logger.Info("backup created", "dir", dir, "files", copied)
	return dir, copied, nil
}
