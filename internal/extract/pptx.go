package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slideFile struct {
	num  int
	file *zip.File
}

// extractPPTX reads slide XML in slide-number order; slides are separated by a blank line.
func extractPPTX(data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	var slides []slideFile
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(strings.ReplaceAll(f.Name, "\\", "/"))
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: num, file: f})
	}
	if len(slides) == 0 {
		return Result{}, errors.New("presentation has no slides")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	parts := make([]string, 0, len(slides))
	for _, s := range slides {
		raw, err := readZipFile(s.file)
		if err != nil {
			return Result{}, fmt.Errorf("slide %d: %w", s.num, err)
		}
		text, err := ooxmlText(raw, "t", "p", "br")
		if err != nil {
			return Result{}, fmt.Errorf("slide %d: %w", s.num, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return Result{Text: strings.Join(parts, "\n\n"), Pages: len(slides)}, nil
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
