// Package source loads Avro schema text from files or a schema registry.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ErrFetch marks failures to obtain schema text, as opposed to failures to
// convert it.
var ErrFetch = errors.New("fetch failed")

// Fetcher retrieves schema text for a registry subject.
type Fetcher interface {
	FetchSchema(ctx context.Context, subject, version string) (string, error)
}

// Input names one schema: a file path, or a registry subject and version.
type Input struct {
	Path    string
	Subject string
	Version string
}

// FileInput returns an Input for a local file.
func FileInput(path string) Input {
	return Input{Path: path}
}

// SubjectInput returns an Input for a registry subject.
func SubjectInput(subject, version string) Input {
	return Input{Subject: subject, Version: version}
}

// Name is a short name for the input, used for output file names: the file
// base name without extension, or the subject.
func (in Input) Name() string {
	if in.Path != "" {
		base := filepath.Base(in.Path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return in.Subject
}

func (in Input) String() string {
	if in.Path != "" {
		return in.Path
	}
	v := in.Version
	if v == "" {
		v = "latest"
	}
	return in.Subject + "@" + v
}

// Loader reads schema text for inputs.
type Loader struct {
	// Registry serves subject inputs. It may be nil when only files are read.
	Registry Fetcher

	// Lenient repairs text that is not valid JSON (comments, trailing
	// commas, single quotes) before returning it.
	Lenient bool

	Logger *zap.Logger
}

// Load returns the schema text for in.
func (l *Loader) Load(ctx context.Context, in Input) (string, error) {
	text, err := l.fetch(ctx, in)
	if err != nil {
		return "", err
	}
	if !l.Lenient || json.Valid([]byte(text)) {
		return text, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		// leave it to the parser to report
		l.logger().Debug("json repair failed", zap.Stringer("input", in), zap.Error(err))
		return text, nil
	}
	l.logger().Info("repaired malformed schema JSON", zap.Stringer("input", in))
	return repaired, nil
}

func (l *Loader) fetch(ctx context.Context, in Input) (string, error) {
	switch {
	case in.Path != "":
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %w", ErrFetch, in.Path, err)
		}
		return string(data), nil
	case in.Subject != "":
		if l.Registry == nil {
			return "", fmt.Errorf("%w: subject %s: no schema registry configured", ErrFetch, in.Subject)
		}
		text, err := l.Registry.FetchSchema(ctx, in.Subject, in.Version)
		if err != nil {
			return "", fmt.Errorf("%w: subject %s: %w", ErrFetch, in, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: empty input", ErrFetch)
	}
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
