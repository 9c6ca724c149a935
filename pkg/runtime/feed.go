package runtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// maxFeedLine bounds a single JSON event line
const maxFeedLine = 1 << 20

// Record is one line of the feed. Exactly one of Event and Deposit is set:
// a game round event, or money inserted at the cabinet.
type Record struct {
	Event   *entities.GameRoundEvent
	Deposit int64
}

// Feed decodes game round events and deposits written one JSON object per
// line. A deposit line looks like {"deposit":500}.
type Feed struct {
	scanner *bufio.Scanner
	line    int
}

// NewFeed reads records from r
func NewFeed(r io.Reader) *Feed {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFeedLine)
	return &Feed{scanner: scanner}
}

// Next returns the next record. Blank lines and lines starting with # are
// skipped. It returns io.EOF when the input is exhausted.
func (f *Feed) Next() (*Record, error) {
	for f.scanner.Scan() {
		f.line++
		text := strings.TrimSpace(f.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		record, err := decodeRecord([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", f.line, err)
		}
		return record, nil
	}
	if err := f.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func decodeRecord(line []byte) (*Record, error) {
	var deposit struct {
		Deposit *int64 `json:"deposit"`
	}
	if err := json.Unmarshal(line, &deposit); err != nil {
		return nil, err
	}
	if deposit.Deposit != nil {
		if *deposit.Deposit <= 0 {
			return nil, fmt.Errorf("invalid deposit %d", *deposit.Deposit)
		}
		return &Record{Deposit: *deposit.Deposit}, nil
	}

	var event entities.GameRoundEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return nil, err
	}
	return &Record{Event: &event}, nil
}

type feedResult struct {
	record *Record
	err    error
	// fatal is set when the reader failed and nothing more will arrive
	fatal bool
}

// Run hands every record to fn in order until the input ends, ctx is
// cancelled or fn fails. Undecodable lines are reported to onError and
// skipped. Cancellation returns at once even while a read is blocked; the
// blocked read is abandoned.
func (f *Feed) Run(ctx context.Context, fn func(context.Context, *Record) error, onError func(error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan feedResult)
	go f.read(ctx, results)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok || result.err == io.EOF {
				return nil
			}
			if result.err != nil {
				if onError != nil {
					onError(result.err)
				}
				if result.fatal {
					return result.err
				}
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, result.record); err != nil {
				return err
			}
		}
	}
}

func (f *Feed) read(ctx context.Context, results chan<- feedResult) {
	defer close(results)
	for {
		record, err := f.Next()
		result := feedResult{record: record, err: err}
		if err != nil && err != io.EOF && f.scanner.Err() != nil {
			result.fatal = true
		}

		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
		if err == io.EOF || result.fatal {
			return
		}
	}
}
