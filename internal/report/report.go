package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	nameWidth  = 20
	emailWidth = 30
	ruleWidth  = 60
)

// Table writes the fixed-width verification report. The first write error is
// kept and every later write becomes a no-op; check it with Err.
type Table struct {
	w   io.Writer
	err error
}

func New(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *Table) Updated(n int64) {
	t.printf("\nUpdated %d user(s) to EmailVerified=true\n\n", n)
}

func (t *Table) WouldUpdate(n int64) {
	t.printf("\nWould update %d user(s) to EmailVerified=true\n\n", n)
}

func (t *Table) Header() {
	t.printf("%-*s %-*s %s\n", nameWidth, "Name", emailWidth, "Email", "Verified")
	t.printf("%s\n", strings.Repeat("-", ruleWidth))
}

// Row prints one user. verified is written exactly as given.
func (t *Table) Row(name, email, verified string) {
	t.printf("%-*s %-*s %s\n", nameWidth, fit(name, nameWidth), emailWidth, fit(email, emailWidth), verified)
}

func (t *Table) AllVerified() {
	t.printf("\n✅ All users are now verified!\n")
}

func (t *Table) DryRun() {
	t.printf("\nDry run mode. No changes applied.\n")
}

func (t *Table) Err() error {
	return t.err
}

// fit truncates s to at most width runes.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
