package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu otherwise writes a config file under the user's config dir.
	api.DisableConfigDir()
}

func extractPDF(data []byte) (res Result, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, err
	}

	pages := pdfPageCount(data)
	if pages == 0 {
		pages = pdfReader.NumPage()
	}
	return Result{Text: buf.String(), Pages: pages}, nil
}

// pdfPageCount asks pdfcpu for the page count; zero means it could not tell.
func pdfPageCount(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0
	}
	return count
}
