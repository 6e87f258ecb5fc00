package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/errors"
)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestEncode_Parts(t *testing.T) {
	data, err := Encode("# Q1\n\nRevenue grew.", "Q1 & Q2")
	require.NoError(t, err)

	for _, name := range []string{partContentTypes, partRels, partDocument, partStyles, partDocumentRels, partCore, "word/fontTable.xml", "word/theme/theme1.xml"} {
		assert.NotEmpty(t, readPart(t, data, name), name)
	}

	core := readPart(t, data, partCore)
	assert.Contains(t, core, "<dc:title>Q1 &amp; Q2</dc:title>")

	doc := readPart(t, data, partDocument)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading1">`)
	assert.Contains(t, doc, "<w:p></w:p>")
	assert.Contains(t, doc, "Revenue grew.")

	assert.Contains(t, readPart(t, data, partStyles), `w:styleId="Heading3"`)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain", "just a line"},
		{"headings", "# One\n## Two\n### Three\nbody"},
		{"blank lines", "first\n\n\nsecond\n"},
		{"tabs", "col1\tcol2\n\tindented"},
		{"escaping", `a < b && "c" > 'd'`},
		{"deep marker stays text", "#### not a heading\n#hashtag"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.text, "title")
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestEncode_NormalizesCRLF(t *testing.T) {
	data, err := Encode("a\r\nb", "t")
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestEncode_HeadingSpacing(t *testing.T) {
	data, err := Encode("##   Spaced", "t")
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "## Spaced", got)
}

func TestDecode_PlainTextFallback(t *testing.T) {
	got, err := Decode([]byte("not a zip, just notes"))
	require.NoError(t, err)
	assert.Equal(t, "not a zip, just notes", got)

	got, err = Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_BinaryGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, 0x00, 0x81})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFormatDecode))
}

func TestDecode_WordStyles(t *testing.T) {
	body := `<?xml version="1.0"?>
<w:document xmlns:w="` + nsWordML + `"><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Summary</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Bold </w:t></w:r><w:r><w:t>text</w:t><w:br/><w:t>next</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Quote"/></w:pPr><w:r><w:t>quoted</w:t></w:r></w:p>
</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(partDocument)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{"# Report", "## Summary", "Bold text\nnext", "quoted"}, "\n"), got)
}

func TestDecode_TableKeepsHeadingAlignment(t *testing.T) {
	body := `<?xml version="1.0"?>
<w:document xmlns:w="` + nsWordML + `"><w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Plan</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:pPr><w:pStyle w:val="Heading3"/></w:pPr><w:r><w:t>cell one</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>cell two</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Budget</w:t></w:r></w:p>
<w:p><w:r><w:t>body</w:t></w:r></w:p>
</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(partDocument)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "# Plan\ncell one\ncell two\n## Budget\nbody", got)
}

func TestDecode_ContainerWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "word/media/blob.bin", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte{0xff, 0xfe, 0x00})
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Decode(buf.Bytes())
	assert.True(t, errors.Is(err, errors.ErrFormatDecode))
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 2, headingLevel("Heading2"))
	assert.Equal(t, 3, headingLevel("heading 3"))
	assert.Equal(t, 0, headingLevel("Heading9"))
	assert.Equal(t, 0, headingLevel("Normal"))
	assert.Equal(t, 0, headingLevel(""))
}
