package fsclient

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/workspace"
)

// FileInfo is a read-only snapshot of a file or directory
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	RelPath   string    `json:"rel_path"`
	IsDir     bool      `json:"is_dir"`
	IsSymlink bool      `json:"is_symlink,omitempty"`
	Size      int64     `json:"size"`
	Mode      string    `json:"mode"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
	MIMEType  string    `json:"mime_type,omitempty"`
}

func newFileInfo(p workspace.ResolvedPath, info fs.FileInfo) FileInfo {
	fi := FileInfo{
		Name:      filepath.Base(p.Abs()),
		Path:      p.Abs(),
		RelPath:   p.Rel(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&fs.ModeSymlink != 0,
		Size:      info.Size(),
		Mode:      info.Mode().String(),
		Modified:  info.ModTime(),
	}
	if !fi.IsDir {
		fi.Extension = strings.TrimPrefix(filepath.Ext(fi.Name), ".")
	}
	return fi
}
