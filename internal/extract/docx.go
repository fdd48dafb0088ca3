package extract

import (
	"bytes"
	"errors"

	"github.com/nguyenthenguyen/docx"
)

func extractDOCX(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()

	text, err := ooxmlText(doc.Editable().GetContent(), "t", "p", "br")
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}
