package docx

import "strconv"

const nsWordML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// stylesXML replaces the go-docx default styles, which define no headings.
var stylesXML = buildStyles()

// headingSizes are half-point font sizes for Heading1-3.
var headingSizes = [maxHeadingLevel]int{32, 26, 24}

func buildStyles() string {
	s := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="` + nsWordML + `">` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>`
	for i, size := range headingSizes {
		n := strconv.Itoa(i + 1)
		s += `<w:style w:type="paragraph" w:styleId="Heading` + n + `">` +
			`<w:name w:val="heading ` + n + `"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
			`<w:pPr><w:keepNext/><w:outlineLvl w:val="` + strconv.Itoa(i) + `"/></w:pPr>` +
			`<w:rPr><w:b/><w:sz w:val="` + strconv.Itoa(size) + `"/></w:rPr></w:style>`
	}
	return s + `</w:styles>`
}
