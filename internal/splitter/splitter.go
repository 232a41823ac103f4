package splitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

// Blocks shorter than this are OCR noise (page numbers, stray marks)
const minBlockLength = 15

// Title lines longer than this are body text, not headings
const maxTitleLength = 100

var (
	blankLineRegex = regexp.MustCompile(`\n\s*\n`)
	numberedRegex  = regexp.MustCompile(`^\d+[.)]`)
)

// sourceMarkers are work/commentator names that typically open the heading
// line of a source on a study sheet.
var sourceMarkers = []string{
	"Rashi", "Tosafot", "Tosfos", "Rambam", "Ramban", "Rashba", "Ritva",
	"Gemara", "Mishnah", "Mishna", "Midrash", "Talmud", "Bavli", "Yerushalmi",
	"Shulchan Aruch", "Tur", "Rema", "Mishnah Berurah", "Ran", "Rosh", "Rif",
	"Sforno", "Ibn Ezra", "Radak", "Malbim", "Netziv", "Meshech Chochma",
	"Sefer HaChinuch", "Kitzur", "Zohar", "Tanya", "Maharal", "Maharsha",
	"רש\"י", "תוספות", "רמב\"ם", "רמב\"ן", "גמרא", "משנה", "מדרש", "תלמוד",
	"שולחן ערוך", "טור", "רשב\"א", "ריטב\"א", "ר\"ן", "רא\"ש", "רי\"ף",
	"ספורנו", "אבן עזרא", "רד\"ק", "מלבי\"ם", "זוהר", "מהר\"ל", "מהרש\"א",
}

// Split segments raw OCR text into discrete source blocks. Blocks are
// separated by blank lines; each retained block is
// classified by language and scanned for a leading title line. The function
// is deterministic and makes no external calls.
func Split(rawText string) []models.ParsedBlock {
	if strings.TrimSpace(rawText) == "" {
		return []models.ParsedBlock{}
	}

	blocks := []models.ParsedBlock{}
	for _, chunk := range blankLineRegex.Split(rawText, -1) {
		chunk = strings.TrimSpace(chunk)
		// Rune count, not bytes: Hebrew is two bytes per letter and the
		// floor must mean the same thing in both scripts
		if utf8.RuneCountInString(chunk) < minBlockLength {
			continue
		}

		title, body := detectTitle(chunk)
		block := models.ParsedBlock{
			ID:    uuid.New().String(),
			Text:  body,
			Title: title,
			Type:  string(models.LanguageEnglish),
		}
		if IsHebrew(chunk) {
			block.Type = string(models.LanguageHebrew)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// detectTitle checks whether the block's first line looks like a source
// heading. If so it is returned separately and stripped from the body.
func detectTitle(block string) (title, body string) {
	lines := strings.SplitN(block, "\n", 2)
	if len(lines) < 2 {
		return "", block
	}

	first := strings.TrimSpace(lines[0])
	if first == "" || len(first) >= maxTitleLength {
		return "", block
	}

	if looksLikeTitle(first) {
		return first, strings.TrimSpace(lines[1])
	}
	return "", block
}

func looksLikeTitle(line string) bool {
	for _, r := range line {
		// only the first rune matters here
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
		break
	}
	if numberedRegex.MatchString(line) {
		return true
	}
	for _, marker := range sourceMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// IsHebrew reports whether Hebrew-range characters outnumber the other
// alphabetic characters in the text.
func IsHebrew(text string) bool {
	hebrew := 0
	alpha := 0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hebrew, r):
			hebrew++
			alpha++
		case unicode.IsLetter(r):
			alpha++
		}
	}
	if alpha == 0 {
		return false
	}
	return float64(hebrew)/float64(alpha) > 0.5
}
