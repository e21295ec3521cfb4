// internal/adapters/printer/printer.go
package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// ErrPrinterUnavailable is returned when the print command is not installed.
var ErrPrinterUnavailable = errors.New("print command not found")

// Config describes the spooler invocation. The invoice file path is
// appended as the last argument.
type Config struct {
	Command string
	Args    []string
	TempDir string
}

// ParseCommand splits a command line such as "lp -d receipt" into a Config.
func ParseCommand(line, tempDir string) Config {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Config{Command: "lp", TempDir: tempDir}
	}
	return Config{Command: fields[0], Args: fields[1:], TempDir: tempDir}
}

// LinePrinter sends plain-text invoices to a system print spooler.
type LinePrinter struct {
	cfg    Config
	logger *slog.Logger
}

var _ ports.InvoicePrinter = (*LinePrinter)(nil)

func NewLinePrinter(cfg Config, logger *slog.Logger) *LinePrinter {
	if cfg.Command == "" {
		cfg.Command = "lp"
	}
	return &LinePrinter{
		cfg:    cfg,
		logger: logger.With(slog.String("adapter", "printer")),
	}
}

// Print writes text to a temporary file and runs the print command on it.
// The temporary file is removed on every path.
func (p *LinePrinter) Print(ctx context.Context, text string) error {
	tmp, err := os.CreateTemp(p.cfg.TempDir, "invoice-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create invoice file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write invoice file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close invoice file: %w", err)
	}

	args := append(append([]string{}, p.cfg.Args...), path)
	out, err := exec.CommandContext(ctx, p.cfg.Command, args...).CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPrinterUnavailable, p.cfg.Command)
		}
		return fmt.Errorf("print command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	p.logger.InfoContext(ctx, "invoice sent to printer",
		slog.String("command", p.cfg.Command),
		slog.Int("bytes", len(text)))
	return nil
}

// Save writes the invoice for saleID to dir/invoice-{id}.txt and returns the path.
func Save(dir string, saleID int64, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("invoice-%d.txt", saleID))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to save invoice: %w", err)
	}
	return path, nil
}
