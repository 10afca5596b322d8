package record

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// TimestampLayout is the timestamp part of CSV file names.
const TimestampLayout = "2006-01-02T15-04-05"

// FileName returns "<strategy>-<timestamp>.csv".
func FileName(strategy string, t time.Time) string {
	return fmt.Sprintf("%s-%s.csv", strategy, t.Format(TimestampLayout))
}

// CSVRecorder appends one line per round:
//
//	balance_before, stake, amount_won, balance_after
//
// with no header and decimals at full precision.
type CSVRecorder struct {
	path string
	file *os.File
	w    *bufio.Writer
}

// maxNameAttempts bounds the "-N" suffixes tried when runs collide on a
// file name.
const maxNameAttempts = 100

// NewCSV creates a new output file in dir (the working directory when
// empty). An existing file is never reused: a run that lands on a taken
// name gets a "-2", "-3", ... suffix. It fails if no file can be created
// so callers can abort before simulating.
func NewCSV(dir, strategy string, now time.Time) (*CSVRecorder, error) {
	base := strings.TrimSuffix(FileName(strategy, now), ".csv")
	for i := 1; i <= maxNameAttempts; i++ {
		name := base + ".csv"
		if i > 1 {
			name = fmt.Sprintf("%s-%d.csv", base, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("record: open csv: %w", err)
		}
		return &CSVRecorder{path: path, file: f, w: bufio.NewWriter(f)}, nil
	}
	return nil, fmt.Errorf("record: open csv: %s: %d files already exist", base, maxNameAttempts)
}

// Path is the file being written.
func (c *CSVRecorder) Path() string { return c.path }

func (c *CSVRecorder) Record(_ context.Context, r sim.Round) error {
	_, err := fmt.Fprintf(c.w, "%s, %s, %s, %s\n",
		r.BalanceBefore.String(), r.Stake.String(), r.Won.String(), r.BalanceAfter.String())
	if err != nil {
		return fmt.Errorf("record: write csv: %w", err)
	}
	return nil
}

func (c *CSVRecorder) Close() error {
	return multierr.Append(c.w.Flush(), c.file.Close())
}
