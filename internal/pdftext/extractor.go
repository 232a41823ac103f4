package pdftext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls embedded text out of a document. Implementations are
// best-effort: an empty string means "no embedded text found, use OCR" and is
// a normal outcome, never an error.
type TextExtractor interface {
	ExtractText(data []byte) string
}

// NativeExtractor reads PDF text through the pdf library's content parser.
type NativeExtractor struct{}

func (NativeExtractor) ExtractText(data []byte) (text string) {
	// The pdf library panics on some malformed inputs; a bad document
	// must fall through to OCR, not take the request down.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}
	return sb.String()
}

// StreamScanExtractor scans raw PDF bytes for content streams and literal
// show-text operators. It is explicitly not a conformant PDF parser:
// encrypted, compressed or non-literal-encoded content yields nothing and
// the caller falls through to OCR.
type StreamScanExtractor struct{}

var (
	streamRegex = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	// Literal strings shown via Tj or collected in TJ arrays
	showTextRegex = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

func (StreamScanExtractor) ExtractText(data []byte) string {
	var fragments []string
	for _, stream := range streamRegex.FindAllSubmatch(data, -1) {
		content := stream[1]
		// Literal strings only appear in uncompressed text-showing
		// streams; binary streams simply produce no matches.
		for _, m := range showTextRegex.FindAllSubmatch(content, -1) {
			fragment := decodeEscapes(string(m[1]))
			fragment = strings.TrimSpace(fragment)
			if fragment != "" && isMostlyPrintable(fragment) {
				fragments = append(fragments, fragment)
			}
		}
	}
	return strings.TrimSpace(strings.Join(fragments, " "))
}

// decodeEscapes resolves PDF literal-string escape sequences.
func decodeEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// isMostlyPrintable filters binary noise that happens to sit between
// parentheses inside compressed streams.
func isMostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	printable := 0
	total := 0
	for _, r := range s {
		total++
		if r == '\n' || r == '\r' || r == '\t' || (r >= 0x20 && r != 0x7f) {
			printable++
		}
	}
	return printable*10 >= total*8
}

// CombinedExtractor tries the native parser first and falls back to the
// stream scan. This is the extractor the pipeline uses.
type CombinedExtractor struct {
	native NativeExtractor
	scan   StreamScanExtractor
}

func NewCombinedExtractor() *CombinedExtractor {
	return &CombinedExtractor{}
}

func (c *CombinedExtractor) ExtractText(data []byte) string {
	if text := c.native.ExtractText(data); strings.TrimSpace(text) != "" {
		return text
	}
	return c.scan.ExtractText(data)
}
