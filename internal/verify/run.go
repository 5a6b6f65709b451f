package verify

import (
	"context"
	"io"

	"github.com/terminally-online/verifyusers/internal/logger"
	"github.com/terminally-online/verifyusers/internal/report"
)

// Run marks every unverified user as verified, then writes the summary and
// the full user table to w.
func Run(ctx context.Context, s *Store, w io.Writer) (Result, error) {
	res, err := s.MarkAllVerified(ctx)
	if err != nil {
		return Result{}, err
	}
	logger.Logger.Info().
		Str("table", s.opts.Table).
		Int64("affected", res.Affected).
		Msg("marked users verified")

	tbl := report.New(w)
	if err := writeUsers(ctx, s, tbl, func() { tbl.Updated(res.Affected) }); err != nil {
		return res, err
	}
	tbl.AllVerified()
	return res, tbl.Err()
}

// Preview reports how many users Run would update without writing anything.
func Preview(ctx context.Context, s *Store, w io.Writer) (int64, error) {
	n, err := s.CountUnverified(ctx)
	if err != nil {
		return 0, err
	}

	tbl := report.New(w)
	if err := writeUsers(ctx, s, tbl, func() { tbl.WouldUpdate(n) }); err != nil {
		return n, err
	}
	tbl.DryRun()
	return n, tbl.Err()
}

// List writes the user table without a summary line.
func List(ctx context.Context, s *Store, w io.Writer) error {
	tbl := report.New(w)
	if err := writeUsers(ctx, s, tbl, func() {}); err != nil {
		return err
	}
	return tbl.Err()
}

// writeUsers runs the user query and only then emits the summary, so a
// failing SELECT prints nothing.
func writeUsers(ctx context.Context, s *Store, tbl *report.Table, summary func()) error {
	cur, err := s.QueryUsers(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close() }()

	summary()
	tbl.Header()

	var rows int
	for u, err := range cur.All() {
		if err != nil {
			return err
		}
		tbl.Row(u.Name, u.Email, u.EmailVerified)
		rows++
	}
	logger.Logger.Debug().Int("rows", rows).Msg("listed users")

	return tbl.Err()
}
