// Package pdfblocks splits the text layer of a PDF into per-page blocks.
package pdfblocks

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// gapFactor is the largest vertical gap, in multiples of the line height,
	// between two rows of the same block.
	gapFactor = 1.5
	// maxLineHeight bounds the line height guessed from row spacing.
	maxLineHeight = 14.0
)

// Block is one structurally distinct unit of text on a page.
type Block struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// ExtractFile reads the PDF at path and returns its text blocks in document order.
func ExtractFile(path string) ([]Block, error) {
	return ExtractFileWithPassword(path, "")
}

// ExtractFileWithPassword is ExtractFile for encrypted documents.
func ExtractFileWithPassword(path, password string) ([]Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return extract(f, info.Size(), password)
}

// Extract reads a PDF from r.
func Extract(r io.ReaderAt, size int64) ([]Block, error) {
	return extract(r, size, "")
}

func extract(r io.ReaderAt, size int64, password string) ([]Block, error) {
	var (
		reader *pdf.Reader
		err    error
	)
	if password != "" {
		reader, err = pdf.NewReaderEncrypted(r, size, func() string { return password })
	} else {
		reader, err = pdf.NewReader(r, size)
	}
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var blocks []Block
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", pageNum, err)
		}
		for _, content := range groupLines(toLines(rows)) {
			blocks = append(blocks, Block{Page: pageNum - 1, Content: content})
		}
	}
	return blocks, nil
}

// line is one row of text with its baseline and dominant font size.
type line struct {
	y    float64
	size float64
	text string
}

func toLines(rows pdf.Rows) []line {
	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		var (
			sb   strings.Builder
			size float64
		)
		for _, t := range row.Content {
			sb.WriteString(t.S)
			size = math.Max(size, t.FontSize)
		}
		lines = append(lines, line{y: float64(row.Position), size: size, text: sb.String()})
	}
	return lines
}

// groupLines merges consecutive lines into blocks, starting a new block
// whenever the gap to the previous line exceeds gapFactor line heights. The
// line height is the font size when known, otherwise the page's median gap
// capped at maxLineHeight.
func groupLines(lines []line) []string {
	var (
		blocks []string
		parts  []string
	)
	flush := func() {
		if content := clean(strings.Join(parts, " ")); content != "" {
			blocks = append(blocks, content)
		}
		parts = parts[:0]
	}
	typical := medianGap(lines)
	if typical <= 0 || typical > maxLineHeight {
		typical = maxLineHeight
	}
	for i, l := range lines {
		if i > 0 {
			prev := lines[i-1]
			height := math.Max(prev.size, l.size)
			if height <= 0 {
				height = typical
			}
			if math.Abs(prev.y-l.y) > gapFactor*height {
				flush()
			}
		}
		parts = append(parts, l.text)
	}
	flush()
	return blocks
}

func medianGap(lines []line) float64 {
	if len(lines) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		gaps = append(gaps, math.Abs(lines[i-1].y-lines[i].y))
	}
	sort.Float64s(gaps)
	return gaps[(len(gaps)-1)/2]
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
