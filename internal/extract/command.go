package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// InputPlaceholder in Command.Args is replaced with the input file path.
const InputPlaceholder = "{input}"

// DefaultTimeout bounds one converter run.
const DefaultTimeout = 60 * time.Second

// DefaultCommand converts a PDF to layout-preserving text on stdout.
var DefaultCommand = Command{
	Name: "pdftotext",
	Args: []string{"-layout", InputPlaceholder, "-"},
}

// Command runs an external converter that writes the document text to stdout.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// Extract implements service.TextExtractor. In-memory sources are written to
// a temporary file for the converter.
func (c Command) Extract(ctx context.Context, src service.Source) (service.ExtractedDocument, error) {
	if c.Name == "" {
		return service.ExtractedDocument{}, common.ErrNoExtractor
	}

	path := src.Path
	if src.Data != nil {
		tmp, cleanup, err := spill(src.Data)
		if err != nil {
			return service.ExtractedDocument{}, err
		}
		defer cleanup()
		path = tmp
	}
	if path == "" {
		return service.ExtractedDocument{}, fmt.Errorf("%w: source has neither data nor path", common.ErrEmptyDocument)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = strings.ReplaceAll(arg, InputPlaceholder, path)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, args...) //nolint:gosec // converter is operator configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return service.ExtractedDocument{}, fmt.Errorf("%w: %s: %w", common.ErrExtractionFailed, Label(src), ctx.Err())
		}
		return service.ExtractedDocument{}, fmt.Errorf("%w: %s: %v: %s",
			common.ErrExtractionFailed, Label(src), err, strings.TrimSpace(stderr.String()))
	}

	slog.Debug("Extracted document",
		"source", Label(src),
		"command", c.Name,
		"bytes", stdout.Len(),
		"duration", time.Since(start))

	return service.ExtractedDocument{
		Source:   Label(src),
		Text:     normalize(stdout.String()),
		Sections: pages(stdout.String()),
	}, nil
}

func spill(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "recon-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil {
			slog.Warn("Failed to remove temp file", "path", f.Name(), "error", err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// pages splits converter output on form feeds. A single page yields no
// sections since it adds nothing over the full text.
func pages(text string) []service.Section {
	parts := strings.Split(text, "\f")
	if len(parts) < 2 {
		return nil
	}
	sections := make([]service.Section, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sections = append(sections, service.Section{Title: fmt.Sprintf("Page %d", i+1), Text: normalize(part)})
	}
	return sections
}
