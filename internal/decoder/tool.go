package decoder

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"udfconv/internal/logging"
	"udfconv/internal/services"
	"udfconv/internal/tabular"
)

const stderrTailBytes = 2048

// Tool runs the external decoder binary and parses its JSON output.
type Tool struct {
	binary    string
	extraArgs []string
	logger    *slog.Logger
}

// NewTool builds a decoder backed by the given binary. extraArgs are passed
// before the standard arguments on every invocation.
func NewTool(binary string, extraArgs []string, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tool{
		binary:    binary,
		extraArgs: append([]string(nil), extraArgs...),
		logger:    logger.With(logging.String(logging.FieldComponent, "decoder")),
	}
}

// Open runs the decoder against one source file and wraps the decoded channels
// in a Handle. The process runs to completion before Open returns; a non-zero
// exit or malformed output yields a services.ErrDecode tagged error carrying
// the tail of the tool's stderr.
func (t *Tool) Open(ctx context.Context, path string, scaling bool) (Handle, error) {
	args := append([]string(nil), t.extraArgs...)
	args = append(args, "--json")
	if scaling {
		args = append(args, "--scale")
	}
	args = append(args, path)

	t.logger.Debug("running decoder",
		logging.String("binary", t.binary),
		logging.String(logging.FieldSource, path),
		logging.Bool("scaling", scaling))

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, services.Wrap(services.ErrDecode, "decoder", "run", stderrTail(stderr.Bytes()), err)
	}

	table, err := parsePayload(stdout.Bytes())
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "decoder", "parse output", path, err)
	}
	t.logger.Debug("decoded file",
		logging.String(logging.FieldSource, path),
		logging.Int("channels", len(table.Columns)),
		logging.Int("rows", table.NumRows()))
	return &toolHandle{table: table}, nil
}

type toolHandle struct {
	table *tabular.Table
}

func (h *toolHandle) AttachMetadata(key, value string) {
	key = strings.TrimSpace(key)
	if key == "" || h.table == nil {
		return
	}
	if h.table.Meta == nil {
		h.table.Meta = make(map[string]string)
	}
	h.table.Meta[key] = value
}

func (h *toolHandle) Columnar() (*tabular.Table, error) {
	if h.table == nil {
		return nil, services.Wrap(services.ErrDecode, "decoder", "columnar view", "handle is closed", nil)
	}
	return h.table, nil
}

func (h *toolHandle) Rows() (*tabular.RowSet, error) {
	if h.table == nil {
		return nil, services.Wrap(services.ErrDecode, "decoder", "row view", "handle is closed", nil)
	}
	return tabular.NewRowSet(h.table), nil
}

func (h *toolHandle) Close() error {
	h.table = nil
	return nil
}

func stderrTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > stderrTailBytes {
		text = text[len(text)-stderrTailBytes:]
	}
	if text == "" {
		return "decoder failed"
	}
	return text
}
