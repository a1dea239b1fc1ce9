package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/scamshield/internal/application/dto"
)

const (
	fileFlag        = "file"
	concurrencyFlag = "concurrency"

	concurrencyDefault = 4
)

// batchResult is one output record. Line is the 1-based input line number.
type batchResult struct {
	Result *dto.ClassificationResponse `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string                      `json:"error,omitempty" yaml:"error,omitempty"`
	Line   int                         `json:"line" yaml:"line"`
}

type batchLine struct {
	text   string
	number int
}

func batchCmd() *urfave.Command {
	flags := []urfave.Flag{
		&urfave.StringFlag{
			Name:  fileFlag,
			Usage: "File with one message per line (optional, read from stdin when not set)",
		},
		&urfave.IntFlag{
			Name:  concurrencyFlag,
			Usage: "Number of messages classified at once",
			Value: concurrencyDefault,
		},
		channelFlagDef(),
	}
	return &urfave.Command{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Classifies every non-empty line of a file",
		Flags:   append(flags, scorerFlags()...),
		Action:  cmdBatch,
	}
}

func cmdBatch(ctx context.Context, cmd *urfave.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	concurrency := int(cmd.Int(concurrencyFlag))
	if concurrency < 1 {
		return fmt.Errorf("--%s must be at least 1", concurrencyFlag)
	}

	in := e.in
	if path := cmd.String(fileFlag); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	lines, err := readLines(in)
	if err != nil {
		return err
	}

	uc, closeScorer, err := newClassifyText(cmd, e.logger)
	if err != nil {
		return err
	}
	defer closeScorer()

	results := scoreLines(ctx, uc, lines, cmd.String(channelFlag), concurrency)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.writeBatch(results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(results))
	}
	return nil
}

type lineClassifier interface {
	Execute(ctx context.Context, req dto.ClassifyTextRequest) (dto.ClassificationResponse, error)
}

// scoreLines classifies every line with at most concurrency in flight.
// Per-message failures are recorded, not returned, so one bad line does not
// cancel the rest.
func scoreLines(ctx context.Context, uc lineClassifier, lines []batchLine, channel string, concurrency int) []batchResult {
	results := make([]batchResult, len(lines))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, l := range lines {
		g.Go(func() error {
			results[i].Line = l.number
			resp, err := uc.Execute(ctx, dto.ClassifyTextRequest{Text: l.text, Channel: channel})
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = &resp
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// writeBatch prints JSON as one object per line and YAML as a single list.
func (e *env) writeBatch(results []batchResult) error {
	if e.format == formatYAML {
		return e.encode(results)
	}
	for _, r := range results {
		if err := writeJSONLine(e.out, r); err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]batchLine, error) {
	var lines []batchLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, batchLine{text: text, number: n})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}
