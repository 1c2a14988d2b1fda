package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format is a history export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts "json", "yaml" or "yml" into a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// FormatForPath guesses the format from a file name, ignoring a trailing
// compression suffix. Unknown extensions default to JSON.
func FormatForPath(path string) Format {
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Export encodes records to w
func Export(w io.Writer, records []Record, format Format) error {
	if records == nil {
		records = []Record{}
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = sonic.MarshalIndent(records, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if format == FormatJSON {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// WriteFile exports records to path, compressing with gzip for ".gz" and
// zstd for ".zst"
func WriteFile(path string, records []Record, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(f)
		if err := Export(gz, records, format); err != nil {
			return err
		}
		return gz.Close()
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if err := Export(zw, records, format); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return Export(f, records, format)
	}
}
