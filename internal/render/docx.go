package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// The reader side expects the document-level relationships part to be
// present even when the document references nothing.
const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `</w:body></w:document>`

// renderDOCX builds a minimal single-part WordprocessingML package, one
// paragraph per input line. Blank lines become empty paragraphs so the
// section spacing of the rewritten resume survives the conversion.
func renderDOCX(text string) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(documentHeader)
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		doc.WriteString(`<w:p>`)
		if line != "" {
			doc.WriteString(`<w:r><w:t xml:space="preserve">`)
			if err := xml.EscapeText(&doc, []byte(line)); err != nil {
				return nil, err
			}
			doc.WriteString(`</w:t></w:r>`)
		}
		doc.WriteString(`</w:p>`)
	}
	doc.WriteString(documentFooter)

	var out bytes.Buffer
	writer := zip.NewWriter(&out)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", doc.String()},
	}
	for _, part := range parts {
		dst, err := writer.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := dst.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
