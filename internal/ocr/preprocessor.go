package ocr

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// Preprocessor enhances scanned sheet images before text detection.
// Source sheets are usually photocopied text on white paper, so a
// grayscale + contrast + sharpen pass helps with small commentary type.
type Preprocessor struct{}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Enhance applies the ImageMagick cleanup pipeline. If ImageMagick is not
// installed or fails, the original bytes are returned unchanged: enhancement
// is an optimization, never a gate.
func (p *Preprocessor) Enhance(imageData []byte) []byte {
	tmpDir := os.TempDir()
	inputFile := filepath.Join(tmpDir, fmt.Sprintf("sheet_in_%d.jpg", os.Getpid()))
	outputFile := filepath.Join(tmpDir, fmt.Sprintf("sheet_out_%d.jpg", os.Getpid()))

	if err := os.WriteFile(inputFile, imageData, 0644); err != nil {
		return imageData
	}
	defer os.Remove(inputFile)
	defer os.Remove(outputFile)

	args := []string{
		inputFile,
		"-resize", "2000x2000>",
		"-colorspace", "Gray",
		"-normalize",
		"-contrast-stretch", "2%x1%",
		"-despeckle",
		"-sharpen", "0x1",
		"-quality", "95",
		outputFile,
	}

	// 'magick' on ImageMagick 7, 'convert' on 6
	var cmd *exec.Cmd
	if _, err := exec.LookPath("magick"); err == nil {
		cmd = exec.Command("magick", args...)
	} else {
		cmd = exec.Command("convert", args...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Printf("[Preprocessor] ImageMagick failed: %v - %s", err, stderr.String())
		return imageData
	}

	processed, err := os.ReadFile(outputFile)
	if err != nil {
		return imageData
	}

	log.Printf("[Preprocessor] Image enhanced: %d bytes -> %d bytes", len(imageData), len(processed))
	return processed
}
