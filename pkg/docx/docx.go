// Package docx converts between plain Markdown-style text and Word (.docx) documents.
//
// The mapping is line oriented and lossy: each line becomes one paragraph,
// lines starting with "#", "##" or "###" become Heading1-3 paragraphs and
// everything else is body text. Inline formatting (bold, italics, links) is
// not carried in either direction.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	godocx "github.com/fumiama/go-docx"

	"github.com/inkwellapp/inkwell-server/internal/errors"
)

// maxHeadingLevel is the deepest heading written by Encode.
const maxHeadingLevel = 3

// Part names inside the container.
const (
	partContentTypes = "[Content_Types].xml"
	partRels         = "_rels/.rels"
	partDocument     = "word/document.xml"
	partStyles       = "word/styles.xml"
	partDocumentRels = "word/_rels/document.xml.rels"
	partCore         = "docProps/core.xml"
)

// Decode extracts text from a .docx file. Bytes that are not a Word document
// are returned as-is when they are valid UTF-8 text.
func Decode(data []byte) (string, error) {
	text, err := decodeDocument(data)
	if err == nil {
		return text, nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return "", errors.Wrap(err, errors.CodeFormatDecode, "document is neither a Word file nor text")
}

func decodeDocument(data []byte) (string, error) {
	r := bytes.NewReader(data)
	styles, err := paragraphStyles(r, int64(len(data)))
	if err != nil {
		return "", err
	}

	doc, err := godocx.Parse(r, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	var (
		lines []string
		n     int
	)
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *godocx.Paragraph:
			style := ""
			if n < len(styles) {
				style = styles[n]
			}
			n++
			lines = append(lines, line(style, it.String()))
		case *godocx.Table:
			lines = append(lines, tableLines(it)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func line(style, text string) string {
	if level := headingLevel(style); level > 0 {
		return strings.Repeat("#", level) + " " + text
	}
	return text
}

// tableLines flattens a table into one line per cell paragraph.
func tableLines(t *godocx.Table) []string {
	var lines []string
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				lines = append(lines, p.String())
			}
			for _, nested := range cell.Tables {
				lines = append(lines, tableLines(nested)...)
			}
		}
	}
	return lines
}

// paragraphStyles returns the style id of every top-level body paragraph, in
// order. go-docx skips the contents of w:pPr when parsing, so styles are read
// from the part directly.
func paragraphStyles(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != partDocument {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", partDocument, err)
		}
		defer rc.Close()
		return scanStyles(rc)
	}
	return nil, fmt.Errorf("container has no %s", partDocument)
}

func scanStyles(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		styles []string
		stack  []string
	)
	parent := func(depth int) string {
		if len(stack) < depth {
			return ""
		}
		return stack[len(stack)-depth]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return styles, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", partDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p" && parent(1) == "body":
				styles = append(styles, "")
			case t.Name.Local == "pStyle" && parent(1) == "pPr" && parent(2) == "p" && parent(3) == "body":
				styles[len(styles)-1] = attr(t, "val")
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps a paragraph style id to a heading depth, 0 for body text.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

// Encode builds a .docx file from text. title is stored in the document properties.
func Encode(text, title string) ([]byte, error) {
	doc := godocx.New().UseTemplate("", godocx.DefaultTemplateFilesList, templateFS{
		partStyles: []byte(stylesXML),
		partCore:   []byte(coreXML(title, time.Now().UTC())),
	})

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, l := range strings.Split(text, "\n") {
		p := doc.AddParagraph()
		if l == "" {
			continue
		}

		level, body := splitHeading(l)
		if level > 0 {
			p.Style("Heading" + strconv.Itoa(level))
		}
		if body != "" {
			preserveSpace(p.AddText(body))
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

// preserveSpace keeps leading and trailing blanks of every text element in r.
func preserveSpace(r *godocx.Run) {
	for _, c := range r.Children {
		if t, ok := c.(*godocx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}

// splitHeading returns the heading level of line and its text, or 0 and the
// line itself when it is body text. A marker must be followed by a space or
// end the line.
func splitHeading(line string) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeadingLevel {
		return 0, line
	}
	rest := line[level:]
	switch {
	case rest == "":
		return level, ""
	case rest[0] == ' ' || rest[0] == '\t':
		return level, strings.TrimLeft(rest, " \t")
	default:
		return 0, line
	}
}

// templateFS serves the package parts go-docx copies into every document:
// its default template, with the parts named in the map replaced.
type templateFS map[string][]byte

func (t templateFS) Open(name string) (fs.File, error) {
	if data, ok := t[name]; ok {
		return &partFile{Reader: bytes.NewReader(data), name: name}, nil
	}
	return godocx.TemplateXMLFS.Open("xml/default/" + name)
}

type partFile struct {
	*bytes.Reader
	name string
}

func (f *partFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *partFile) Close() error               { return nil }
func (f *partFile) Name() string               { return path.Base(f.name) }
func (f *partFile) Mode() fs.FileMode          { return 0o444 }
func (f *partFile) ModTime() time.Time         { return time.Time{} }
func (f *partFile) IsDir() bool                { return false }
func (f *partFile) Sys() any                   { return nil }

func coreXML(title string, at time.Time) string {
	var esc strings.Builder
	_ = xml.EscapeText(&esc, []byte(title))
	stamp := at.Format(time.RFC3339)

	return xml.Header +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc.String() + `</dc:title>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}
