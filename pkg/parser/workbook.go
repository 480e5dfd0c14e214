package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"cscanfuse/internal/models"
)

// WorkbookText reads the first sheet of an .xlsx workbook and returns its
// rows as tab-delimited text lines, ready for Parse.
func WorkbookText(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, "\t")
	}
	return strings.Join(lines, "\n"), nil
}

// ParseWorkbook parses a C-scan exported as an .xlsx workbook with the
// default strategies.
func ParseWorkbook(filename string, r io.Reader) (*models.ScanRecord, error) {
	return defaultParser.ParseWorkbook(filename, r)
}

// ParseWorkbook converts the first sheet of an .xlsx workbook to text and
// parses it. Format detection runs on the text exactly as for delimited
// exports.
func (p *Parser) ParseWorkbook(filename string, r io.Reader) (*models.ScanRecord, error) {
	content, err := WorkbookText(r)
	if err != nil {
		return nil, &ParseError{Filename: filename, Reason: err.Error(), Err: err}
	}
	return p.Parse(filename, content)
}
