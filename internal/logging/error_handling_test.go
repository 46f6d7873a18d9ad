package logging

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type stubTx struct {
	rollbackErr error
}

func (s *stubTx) Rollback() error {
	return s.rollbackErr
}

func TestClose(t *testing.T) {
	t.Run("successful close logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		Close(NewStructuredLogger(&buf, slog.LevelInfo), &errorCloser{}, "flowline_points")
		assert.Empty(t, buf.String())
	})

	t.Run("failed close names the dataset", func(t *testing.T) {
		var buf bytes.Buffer
		Close(NewStructuredLogger(&buf, slog.LevelInfo), &errorCloser{err: assert.AnError}, "flowline_points")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"error closing"`)
		assert.Contains(t, output, `"dataset":"flowline_points"`)
	})

	t.Run("nil closer", func(t *testing.T) {
		assert.NotPanics(t, func() { Close(nil, nil, "xs") })
	})
}

func TestRollback(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog bool
	}{
		{"rollback failure is logged", assert.AnError, true},
		{"rollback after commit is ignored", sql.ErrTxDone, false},
		{"wrapped tx done is ignored", fmt.Errorf("driver: %w", sql.ErrTxDone), false},
		{"successful rollback is silent", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Rollback(NewStructuredLogger(&buf, slog.LevelInfo), &stubTx{rollbackErr: tt.err}, "xs")
			if tt.wantLog {
				assert.Contains(t, buf.String(), `"msg":"error rolling back workspace write"`)
				assert.Contains(t, buf.String(), `"dataset":"xs"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCloseFile(t *testing.T) {
	t.Run("reports a failed close", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		export := func() (err error) {
			defer CloseFile(&err, logger, &errorCloser{err: assert.AnError}, "points.csv")
			return nil
		}

		err := export()
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "error closing points.csv")
		assert.Contains(t, buf.String(), `"msg":"error closing output file"`)
		assert.Contains(t, buf.String(), `"path":"points.csv"`)
	})

	t.Run("keeps the write error", func(t *testing.T) {
		original := fmt.Errorf("write failed")
		export := func() (err error) {
			defer CloseFile(&err, nil, &errorCloser{err: assert.AnError}, "points.csv")
			return original
		}
		assert.Equal(t, original, export())
	})

	t.Run("clean close leaves err nil", func(t *testing.T) {
		export := func() (err error) {
			defer CloseFile(&err, nil, &errorCloser{}, "points.csv")
			return nil
		}
		assert.NoError(t, export())
	})
}
