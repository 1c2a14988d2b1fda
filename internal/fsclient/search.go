package fsclient

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// Find walks dir and returns entries whose path relative to dir matches
// pattern (doublestar syntax, e.g. "**/*.go"). Symlinks are never followed;
// a link whose target lies outside the workspace is left out. Results are
// sorted by path. Recorded as a list operation.
func (c *Client) Find(ctx context.Context, dir, pattern string) ([]FileInfo, error) {
	a := c.begin(types.OpList, dir)

	p, err := c.resolve(a, dir)
	if err != nil {
		return nil, c.finish(a, err)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, c.finish(a, fserr.Validationf("find", pattern, "invalid pattern"))
	}
	info, err := os.Stat(p.Abs())
	if err != nil {
		return nil, c.finish(a, fserr.FromOS("find", p.Rel(), err))
	}
	if !info.IsDir() {
		return nil, c.finish(a, fserr.New(fserr.KindNotADirectory, "find", p.Rel(), nil))
	}

	var (
		mu      sync.Mutex
		matches []FileInfo
	)
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, p.Abs(), func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || path == p.Abs() {
			return nil
		}

		rel, err := filepath.Rel(p.Abs(), path)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
			return nil
		}

		entryInfo, err := d.Info()
		if err != nil {
			return nil
		}
		child := c.guard.Child(p, rel)
		if !child.Inside() {
			return nil
		}
		if entryInfo.Mode()&fs.ModeSymlink != 0 && !c.guard.Contains(path) {
			return nil
		}

		fi := c.describeChild(child, entryInfo)
		mu.Lock()
		matches = append(matches, fi)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, c.finish(a, fserr.New(fserr.KindIOFailure, "find", p.Rel(), err))
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].RelPath < matches[j].RelPath })
	if matches == nil {
		matches = []FileInfo{}
	}
	return matches, c.finish(a, nil)
}
