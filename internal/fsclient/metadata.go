package fsclient

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// GetInfo describes path, or returns nil, nil when nothing exists there.
// Regular files also get a MIME type sniffed from their content.
func (c *Client) GetInfo(ctx context.Context, path string) (*FileInfo, error) {
	a := c.begin(types.OpInfo, path)

	p, err := c.resolve(a, path)
	if err != nil {
		return nil, c.finish(a, err)
	}

	info, err := os.Stat(p.Abs())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Stat failed, reporting as absent", zap.String("path", p.Rel()), zap.Error(err))
		}
		return nil, c.finish(a, nil)
	}

	fi := newFileInfo(p, info)
	if info.Mode().IsRegular() {
		if mtype, err := mimetype.DetectFile(p.Abs()); err == nil {
			fi.MIMEType = mtype.String()
		}
	}
	return &fi, c.finish(a, nil)
}
