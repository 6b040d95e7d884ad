package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// DOCXContentType is the media type of Word documents
const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

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

// sizes are in half-points, spacing in twentieths of a point
const (
	docxFont     = "Calibri"
	docxSize     = 22
	docxPageSize = `<w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>`
)

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func run(sb *strings.Builder, r Run) {
	sb.WriteString(`<w:r><w:rPr><w:rFonts w:ascii="` + docxFont + `" w:hAnsi="` + docxFont + `"/>`)
	if r.Bold {
		sb.WriteString(`<w:b/>`)
	}
	fmt.Fprintf(sb, `<w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`, docxSize, escape(r.Text))
}

func paragraph(sb *strings.Builder, align string, before, after int, runs []Run) {
	fmt.Fprintf(sb, `<w:p><w:pPr><w:jc w:val="%s"/><w:spacing w:before="%d" w:after="%d"/></w:pPr>`, align, before, after)
	for _, r := range runs {
		run(sb, r)
	}
	sb.WriteString(`</w:p>`)
}

func signatureCell(sb *strings.Builder, s *Signature) {
	sb.WriteString(`<w:tc><w:tcPr><w:tcW w:w="2500" w:type="pct"/>`)
	if s == nil {
		sb.WriteString(`</w:tcPr><w:p/></w:tc>`)
		return
	}
	sb.WriteString(`<w:tcBorders><w:top w:val="single" w:sz="6" w:color="1E293B"/></w:tcBorders></w:tcPr>`)
	paragraph(sb, "center", 60, 40, []Run{b(strings.ToUpper(s.Nombre))})
	paragraph(sb, "center", 0, 40, []Run{n("C.I. " + s.Cedula)})
	paragraph(sb, "center", 0, 80, []Run{n(s.Rol)})
	sb.WriteString(`</w:tc>`)
}

// RenderDOCX renders a contract body as a WordprocessingML document
func RenderDOCX(doc *Contract) ([]byte, error) {
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case BlockCenteredBold:
			paragraph(&body, "center", 0, 100, blk.Runs)
		case BlockCentered:
			paragraph(&body, "center", 0, 160, blk.Runs)
		case BlockClauseTitle:
			paragraph(&body, "left", 280, 120, blk.Runs)
		default:
			paragraph(&body, "both", 0, 200, blk.Runs)
		}
	}

	body.WriteString(`<w:p><w:pPr><w:spacing w:after="1400"/></w:pPr></w:p>`)
	body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/></w:tblPr><w:tblGrid><w:gridCol/><w:gridCol/></w:tblGrid>`)
	for i := 0; i < len(doc.Signatures); i += 2 {
		body.WriteString(`<w:tr>`)
		signatureCell(&body, &doc.Signatures[i])
		if i+1 < len(doc.Signatures) {
			signatureCell(&body, &doc.Signatures[i+1])
		} else {
			signatureCell(&body, nil)
		}
		body.WriteString(`</w:tr>`)
	}
	body.WriteString(`</w:tbl>`)

	paragraph(&body, "center", 240, 0, []Run{n(Footer)})
	body.WriteString(`<w:sectPr>` + docxPageSize + `</w:sectPr></w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", body.String()},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish docx: %w", err)
	}
	return buf.Bytes(), nil
}
