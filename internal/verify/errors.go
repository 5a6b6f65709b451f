package verify

import "errors"

// Every error returned by this package wraps exactly one of these.
var (
	ErrConnect = errors.New("connection error")
	ErrQuery   = errors.New("query error")
	ErrCommit  = errors.New("commit error")
)

// Kind names the category of err for logging, or "other" when err is not
// one of this package's errors.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConnect):
		return "connect"
	case errors.Is(err, ErrQuery):
		return "query"
	case errors.Is(err, ErrCommit):
		return "commit"
	}
	return "other"
}
