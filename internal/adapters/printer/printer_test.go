// internal/adapters/printer/printer_test.go
package printer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pos-engine/internal/adapters/printer"
	"github.com/ammerola/pos-engine/test/helpers"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want printer.Config
	}{
		{name: "default", line: "  ", want: printer.Config{Command: "lp", TempDir: "/tmp"}},
		{name: "bare", line: "lp", want: printer.Config{Command: "lp", Args: []string{}, TempDir: "/tmp"}},
		{name: "with_args", line: "lp -d receipt", want: printer.Config{Command: "lp", Args: []string{"-d", "receipt"}, TempDir: "/tmp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, printer.ParseCommand(tt.line, "/tmp"))
		})
	}
}

func TestLinePrinter_Print(t *testing.T) {
	spool := t.TempDir()
	out := filepath.Join(t.TempDir(), "printed.txt")

	tests := []struct {
		name        string
		cfg         printer.Config
		wantErr     bool
		unavailable bool
		wantOutput  bool
	}{
		{
			name:       "sends_file_to_command",
			cfg:        printer.Config{Command: "sh", Args: []string{"-c", `cat "$0" > "` + out + `"`}, TempDir: spool},
			wantOutput: true,
		},
		{
			name:    "command_fails",
			cfg:     printer.Config{Command: "sh", Args: []string{"-c", "echo offline >&2; exit 3"}, TempDir: spool},
			wantErr: true,
		},
		{
			name:        "command_missing",
			cfg:         printer.Config{Command: "pos-engine-no-such-spooler", TempDir: spool},
			wantErr:     true,
			unavailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := printer.NewLinePrinter(tt.cfg, helpers.TestLogger())

			err := p.Print(context.Background(), "Sale #1\nBalance Due: $3.00\n")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.unavailable, errors.Is(err, printer.ErrPrinterUnavailable))
			} else {
				require.NoError(t, err)
			}
			if tt.wantOutput {
				printed, err := os.ReadFile(out)
				require.NoError(t, err)
				assert.Equal(t, "Sale #1\nBalance Due: $3.00\n", string(printed))
			}

			leftovers, err := os.ReadDir(spool)
			require.NoError(t, err)
			assert.Empty(t, leftovers, "temporary invoice files must be removed")
		})
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "invoices")

	path, err := printer.Save(dir, 12, "Sale #12")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice-12.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Sale #12", string(data))
}
