package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/logistic/internal/transport"
)

// stagingDirMode is applied when creating staging directories.
const stagingDirMode os.FileMode = 0o777

// StagingDir returns <varDir>/logistic/<code> as an absolute path.
func StagingDir(varDir, code string) (string, error) {
	return filepath.Abs(filepath.Join(varDir, "logistic", code))
}

// Fetcher downloads listed files into a kind's staging directory.
type Fetcher struct {
	// DownloadTimeout bounds each individual download. Zero means no bound.
	DownloadTimeout time.Duration
}

// Fetch creates dir if needed and downloads every file into it, in order.
// Any failed download aborts with a *FetchError; files fetched before the
// failure stay on disk.
func (f Fetcher) Fetch(ctx context.Context, client transport.Client, dir string, files []transport.Entry) ([]StagedFile, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, stagingDirMode); err != nil {
		return nil, &FetchError{Path: dir, Err: err}
	}

	staged := make([]StagedFile, 0, len(files))
	for _, entry := range files {
		sf, err := f.fetchOne(ctx, client, dir, entry.Name)
		if err != nil {
			return staged, err
		}
		staged = append(staged, sf)
	}
	return staged, nil
}

func (f Fetcher) fetchOne(ctx context.Context, client transport.Client, dir, name string) (StagedFile, error) {
	path := filepath.Join(dir, filepath.Base(name))

	if f.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.DownloadTimeout)
		defer cancel()
	}

	out, err := os.Create(path)
	if err != nil {
		return StagedFile{}, &FetchError{File: name, Path: path, Err: err}
	}

	n, err := client.Download(ctx, name, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return StagedFile{}, &FetchError{File: name, Path: path, Err: err}
	}

	return StagedFile{Name: name, Path: path, Size: n}, nil
}
