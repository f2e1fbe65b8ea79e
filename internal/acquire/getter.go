// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-getter"

	"github.com/pdiddy/openadas/internal/errors"
)

// fetch retrieves a single file from any go-getter source (a local mirror
// directory, file::, s3::, gcs::, git::) into destPath.
func fetch(ctx context.Context, src, destPath string) error {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	getters := make(map[string]getter.Getter, len(getter.Getters))
	for k, v := range getter.Getters {
		getters[k] = v
	}
	// The cache holds a copy, never a symlink into the mirror.
	getters["file"] = &getter.FileGetter{Copy: true}

	tmpPath := filepath.Join(filepath.Dir(destPath), ".getter-"+uuid.NewString()+".tmp")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     tmpPath,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getters,
	}
	if err := client.Get(); err != nil {
		os.Remove(tmpPath)
		if _, statErr := os.Stat(src); os.IsNotExist(statErr) {
			return errors.NotFoundf("%s: %v", src, err)
		}
		return errors.Wrapf(err, "fetching %s", src)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming fetched file")
	}
	return nil
}
