// Package source reads dictionary datasets from disk and implements services.Repository.
package source

import (
	"path/filepath"
	"strings"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// Format identifies a dataset file encoding
type Format int

const (
	FormatUnknown Format = iota
	// FormatText is one "word<delimiter>translation" record per line
	FormatText
	// FormatMsgpack is a msgpack array of {w, t} maps
	FormatMsgpack
)

// FormatInfo describes a supported dataset format
type FormatInfo struct {
	Format      Format
	Description string
	Extensions  []string
}

var supportedFormats = []FormatInfo{
	{Format: FormatText, Description: "Delimited text dictionary", Extensions: []string{".txt", ".tsv", ".csv"}},
	{Format: FormatMsgpack, Description: "Msgpack dictionary", Extensions: []string{".msgpack", ".mpk"}},
}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// SupportedFormats lists the formats Open understands
func SupportedFormats() []FormatInfo {
	out := make([]FormatInfo, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, info := range supportedFormats {
		for _, candidate := range info.Extensions {
			if ext == candidate {
				return info.Format, nil
			}
		}
	}
	return FormatUnknown, errors.NewUnknownFormatError(path)
}

// File is a repository backed by one file on disk
type File interface {
	services.Repository
	Path() string
}

// Open returns the file source matching path's extension. delimiter only
// applies to text files; empty means tab.
func Open(path, delimiter string) (File, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatMsgpack:
		return NewMsgpackFile(path), nil
	default:
		return NewTextFile(path, delimiter), nil
	}
}
