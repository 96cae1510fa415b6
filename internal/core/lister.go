package core

import (
	"context"
	"fmt"
	"regexp"

	"github.com/JonMunkholm/logistic/internal/transport"
)

// FilterFiles keeps plain files whose name matches re, in listing order.
func FilterFiles(entries []transport.Entry, re *regexp.Regexp) []transport.Entry {
	var out []transport.Entry
	for _, e := range entries {
		if e.Type == transport.EntryFile && re.MatchString(e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// ListFiles enters dir on an open session and returns the matching files.
// The session stays open for the fetch that follows.
func ListFiles(ctx context.Context, client transport.Client, dir string, re *regexp.Regexp) ([]transport.Entry, error) {
	if err := client.ChangeDir(ctx, dir); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrRemotePathNotFound, dir, err)
	}

	entries, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", dir, err)
	}

	return FilterFiles(entries, re), nil
}
