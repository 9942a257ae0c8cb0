package scraper

import "fmt"

// ErrKind classifies page-level failures. The ingest pipeline only cares
// about "usable payload" vs "skip and log", but the kind is kept for run logs.
type ErrKind string

const (
	ErrKindNetwork ErrKind = "network"
	ErrKindBlocked ErrKind = "blocked"
	ErrKindParse   ErrKind = "parse"
)

// PageError is a classified failure for one fetched page.
type PageError struct {
	Kind ErrKind
	URL  string
	Err  error
}

func (e *PageError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error fetching %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

func pageErr(kind ErrKind, url, format string, args ...any) *PageError {
	return &PageError{Kind: kind, URL: url, Err: fmt.Errorf(format, args...)}
}
