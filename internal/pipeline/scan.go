package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// Verdict is the outcome of a malware scan.
type Verdict struct {
	Infected bool
	// Detail names the signature for infected files.
	Detail string
}

// Scanner checks file content for malware.
type Scanner interface {
	// Available reports whether the scan engine is reachable. An
	// unreachable engine skips the scan stage rather than failing it.
	Available(ctx context.Context) bool

	// Scan streams content to the engine and returns its verdict.
	Scan(ctx context.Context, r io.Reader) (*Verdict, error)
}

// ClamdScanner scans content through a clamd daemon over TCP.
type ClamdScanner struct {
	c *clamd.Clamd
}

// NewClamdScanner connects to clamd at addr, e.g. "tcp://clamav:3310".
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{c: clamd.NewClamd(addr)}
}

func (s *ClamdScanner) Available(_ context.Context) bool {
	return s.c.Ping() == nil
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) (*Verdict, error) {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.c.ScanStream(r, abort)
	if err != nil {
		return nil, fmt.Errorf("pipeline: scan stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil, errors.New("pipeline: scan engine returned no result")
			}
			switch res.Status {
			case clamd.RES_OK:
				return &Verdict{}, nil
			case clamd.RES_FOUND:
				return &Verdict{Infected: true, Detail: res.Description}, nil
			default:
				return nil, fmt.Errorf("pipeline: scan failed: %s", res.Description)
			}
		}
	}
}
