package csvsource

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-compass/internal/domain"
)

// candidateDelimiters are tried in order; the first one with the highest
// count on the header line wins.
var candidateDelimiters = []rune{',', '\t', '|', ';'}

// numberRe matches cells that the parser types as numbers: plain decimals
// with optional sign and exponent. Hex, "NaN" and "Inf" stay strings.
var numberRe = regexp.MustCompile(`^\s*-?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\s*$`)

// Parse reads a delimited text batch with a header row into raw rows.
// Header names are trimmed. Cells are typed dynamically: numbers, true/false
// and empty cells become number, bool and absent values; everything else is
// kept as a string. Rows with a different column count are kept; missing
// trailing cells read as absent and surplus cells are ignored.
func Parse(r io.Reader) ([]domain.RawRecord, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = guessDelimiter(head)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: batch has no header row", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	records := []domain.RawRecord{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// A broken line is row-level noise; skip it and keep reading.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read batch: %w", err)
		}
		if isBlank(row) {
			continue
		}

		rec := make(domain.RawRecord, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			if v := typeCell(row[i]); v.Kind != domain.KindAbsent {
				rec[name] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func guessDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func typeCell(cell string) domain.Value {
	trimmed := strings.TrimSpace(cell)
	switch {
	case trimmed == "":
		return domain.Value{}
	case strings.EqualFold(trimmed, "true"):
		return domain.Bool(true)
	case strings.EqualFold(trimmed, "false"):
		return domain.Bool(false)
	case numberRe.MatchString(trimmed):
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return domain.Number(f)
		}
	}
	return domain.String(cell)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
