package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// scratchSize is the reusable buffer handed to godirwalk for directory reads.
const scratchSize = 64 * 1024

// WalkOptions contains options for the Walk function
type WalkOptions struct {
	// MaxDepth is the maximum directory depth to traverse (0 means no limit)
	MaxDepth int
	// SkipHidden determines whether dot-files and dot-directories are skipped
	SkipHidden bool
	// FollowSymlinks determines whether symbolic links should be followed
	FollowSymlinks bool
	// Summarize emits directories pruned by MaxDepth as summary entries
	// carrying the aggregate byte size of the pruned subtree.
	Summarize bool
}

// DefaultWalkOptions returns the default options for Walk
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		MaxDepth:       100,
		SkipHidden:     false,
		FollowSymlinks: false,
	}
}

// ScanEntry is one filesystem node in strict depth-first pre-order. Depth is
// the number of path components below the scan root; the root itself is
// depth 0. The stream encoder relies on entries arriving in exactly this
// order, so callers must not reorder the result.
type ScanEntry struct {
	Path        string
	Name        string
	Depth       int
	Size        int64
	ModTime     int64
	Permissions uint32
	IsDir       bool
	IsLink      bool
	// Summary marks a directory roll-up: Size holds the subtree total and
	// no children follow.
	Summary bool
}

// Walk performs a directory traversal starting at root with default options.
func Walk(root string) ([]ScanEntry, error) {
	return WalkWithOptions(context.Background(), root, DefaultWalkOptions())
}

// WalkWithContext performs a directory traversal starting at root with context support and default options.
func WalkWithContext(ctx context.Context, root string) ([]ScanEntry, error) {
	return WalkWithOptions(ctx, root, DefaultWalkOptions())
}

// WalkWithOptions performs a directory traversal starting at root with the
// specified options. Entries are returned in pre-order: each directory before
// its contents, and within a directory all subdirectories before the files,
// each group sorted lexically. Directories-first sibling order is what the
// nested stream renderers reconstruct from, so callers must not reorder the
// result.
func WalkWithOptions(ctx context.Context, root string, options WalkOptions) ([]ScanEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	w := &treeWalker{
		options: options,
		scratch: make([]byte, scratchSize),
		entries: make([]ScanEntry, 0, 1000),
	}
	w.entries = append(w.entries, ScanEntry{
		Path:        ".",
		Name:        filepath.Base(absRoot),
		Depth:       0,
		Size:        info.Size(),
		ModTime:     info.ModTime().Unix(),
		Permissions: uint32(info.Mode().Perm()),
		IsDir:       true,
	})

	if err := w.walkDir(ctx, absRoot, "", 1); err != nil {
		return w.entries, err
	}
	return w.entries, nil
}

type treeWalker struct {
	options WalkOptions
	scratch []byte
	entries []ScanEntry
}

// walkDir appends dir's children at the given depth and recurses into kept
// subdirectories, keeping each subtree contiguous.
func (w *treeWalker) walkDir(ctx context.Context, dir, rel string, depth int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dirents, err := godirwalk.ReadDirents(dir, w.scratch)
	if err != nil {
		return nil // Skip directories we cannot read
	}
	sort.Slice(dirents, func(i, j int) bool {
		if di, dj := dirents[i].IsDir(), dirents[j].IsDir(); di != dj {
			return di
		}
		return dirents[i].Name() < dirents[j].Name()
	})

	for _, de := range dirents {
		name := de.Name()
		if w.options.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		relPath := name
		if rel != "" {
			relPath = filepath.Join(rel, name)
		}

		isLink := de.IsSymlink()
		isDir := de.IsDir()
		if isLink && w.options.FollowSymlinks {
			if target, err := os.Stat(path); err == nil && target.IsDir() {
				isDir = true
			}
		}

		info, err := os.Lstat(path)
		if err != nil {
			continue // Skip files we can't stat
		}

		if w.options.MaxDepth > 0 && depth > w.options.MaxDepth {
			if isDir && w.options.Summarize {
				w.entries = append(w.entries, ScanEntry{
					Path:        relPath,
					Name:        name,
					Depth:       depth,
					Size:        w.subtreeSize(path),
					ModTime:     info.ModTime().Unix(),
					Permissions: uint32(info.Mode().Perm()),
					IsDir:       true,
					Summary:     true,
				})
			}
			continue
		}

		w.entries = append(w.entries, ScanEntry{
			Path:        relPath,
			Name:        name,
			Depth:       depth,
			Size:        info.Size(),
			ModTime:     info.ModTime().Unix(),
			Permissions: uint32(info.Mode().Perm()),
			IsDir:       isDir,
			IsLink:      isLink,
		})

		if isDir && (!isLink || w.options.FollowSymlinks) {
			if err := w.walkDir(ctx, path, relPath, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// subtreeSize totals the regular file bytes below dir.
func (w *treeWalker) subtreeSize(dir string) int64 {
	var total int64
	dirents, err := godirwalk.ReadDirents(dir, w.scratch)
	if err != nil {
		return total
	}
	for _, de := range dirents {
		path := filepath.Join(dir, de.Name())
		if de.IsDir() {
			total += w.subtreeSize(path)
			continue
		}
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}
