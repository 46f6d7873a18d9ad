package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Deferred cleanup for workspace writes and exported files. Failures are
// logged against the dataset or file being written.

// Rollback undoes a workspace write from a defer. Once the write has been
// committed the rollback returns sql.ErrTxDone, which is not logged.
func Rollback(logger *slog.Logger, tx interface{ Rollback() error }, dataset string) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return
	}
	LogError(logger, "error rolling back workspace write", err,
		slog.String("component", "workspace"),
		slog.String("dataset", dataset))
}

// Close closes a statement or reader from a defer and logs a failure.
func Close(logger *slog.Logger, c io.Closer, dataset string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "error closing", err,
			slog.String("component", "workspace"),
			slog.String("dataset", dataset))
	}
}

// CloseFile closes an output file from a defer. A failed close can leave the
// file short, so unless *errp already holds an error the close error is
// returned through it.
func CloseFile(errp *error, logger *slog.Logger, f io.Closer, path string) {
	if f == nil {
		return
	}
	err := f.Close()
	if err == nil {
		return
	}
	LogError(logger, "error closing output file", err,
		slog.String("component", "export"),
		slog.String("path", path))
	if *errp == nil {
		*errp = fmt.Errorf("error closing %s: %w", path, err)
	}
}
