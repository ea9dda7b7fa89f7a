// Package retention removes generated files once they outlive their usefulness.
package retention

import (
	"io/fs"
	"os"
	"time"

	"github.com/mediaroll/mediaroll/filesystem"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/where"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Prune deletes regular files under dir last modified more than ttl ago.
// Directories are left in place. A missing dir is not an error.
func Prune(dir string, ttl time.Duration) (removed int, err error) {
	fsys := filesystem.API()
	cutoff := time.Now().Add(-ttl)

	err = afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := fsys.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

// CollectGarbage prunes the downloads directory according to
// downloads.retention_days, including interrupted .part files.
func CollectGarbage() {
	days := viper.GetInt(key.DownloadsRetentionDays)
	if days <= 0 {
		return
	}

	dir := where.Downloads()
	removed, err := Prune(dir, time.Duration(days)*24*time.Hour)
	if err != nil {
		log.WithField("dir", dir).Warn(err)
		return
	}
	if removed > 0 {
		log.WithFields(log.Fields{"dir": dir, "removed": removed}).Info("pruned old downloads")
	}
}
