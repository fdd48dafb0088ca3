package extract

import (
	"encoding/xml"
	"io"
	"strings"
)

// ooxmlText collects character data inside textElem elements (w:t, a:t) and emits
// a newline when a breakElems element ends. Tabs become \t.
func ooxmlText(raw string, textElem string, breakElems ...string) (string, error) {
	breaks := make(map[string]struct{}, len(breakElems))
	for _, b := range breakElems {
		breaks[b] = struct{}{}
	}

	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	depth := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textElem {
				depth++
			}
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == textElem && depth > 0 {
				depth--
			}
			if _, ok := breaks[t.Name.Local]; ok && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
