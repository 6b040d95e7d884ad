package cuv

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF carries no extractable text layer
// (typically a scanned certificate)
var ErrNoText = errors.New("pdf has no text layer")

// ExtractText flattens every page of a PDF into plain text, one line per
// visual row. Wide horizontal gaps between glyph runs become tabs so the
// two-column layout survives the way Parse expects it.
func ExtractText(data []byte) (text string, err error) {
	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		for _, row := range rows {
			writeRow(&b, row.Content)
			b.WriteByte('\n')
		}
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func writeRow(b *strings.Builder, glyphs pdf.TextHorizontal) {
	var prevEnd float64
	for i, g := range glyphs {
		if i > 0 {
			gap := g.X - prevEnd
			switch {
			case gap > 3*g.FontSize:
				b.WriteByte('\t')
			case gap > g.FontSize/4 && !strings.HasPrefix(g.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		prevEnd = g.X + g.W
	}
}
