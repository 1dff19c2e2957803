package documents

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataURI(mime, body string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(body))
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantMIME string
		wantBody string
		wantErr  bool
	}{
		{
			name:     "base64 plain text",
			uri:      dataURI("text/plain", "Jane Doe\nGo developer"),
			wantMIME: MIMEPlain,
			wantBody: "Jane Doe\nGo developer",
		},
		{
			name:     "parameters are dropped",
			uri:      dataURI("text/plain;charset=utf-8", "hello"),
			wantMIME: MIMEPlain,
			wantBody: "hello",
		},
		{
			name:     "percent encoded",
			uri:      "data:text/plain,Jane%20Doe",
			wantMIME: MIMEPlain,
			wantBody: "Jane Doe",
		},
		{
			name:     "sniffed when undeclared",
			uri:      dataURI("", "%PDF-1.4\n%fake"),
			wantMIME: MIMEPDF,
			wantBody: "%PDF-1.4\n%fake",
		},
		{
			name:     "sniffed when octet-stream",
			uri:      dataURI("application/octet-stream", "<html><body><p>hi</p></body></html>"),
			wantMIME: MIMEHTML,
			wantBody: "<html><body><p>hi</p></body></html>",
		},
		{name: "missing prefix", uri: "text/plain;base64,aGk=", wantErr: true},
		{name: "missing comma", uri: "data:text/plain;base64", wantErr: true},
		{name: "bad base64", uri: "data:text/plain;base64,!!!", wantErr: true},
		{name: "empty payload", uri: "data:text/plain;base64,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDataURI(tt.uri)
			if tt.wantErr {
				var docErr *Error
				assert.ErrorAs(t, err, &docErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, doc.MIMEType)
			assert.Equal(t, tt.wantBody, string(doc.Data))
		})
	}
}

func TestDocument_Inline(t *testing.T) {
	assert.True(t, (&Document{MIMEType: MIMEPDF}).Inline())
	assert.True(t, (&Document{MIMEType: MIMEPlain}).Inline())
	assert.True(t, (&Document{MIMEType: "image/png"}).Inline())
	assert.False(t, (&Document{MIMEType: MIMEDocx}).Inline())
	assert.False(t, (&Document{MIMEType: MIMEHTML}).Inline())
}

func TestExtractText_Plain(t *testing.T) {
	doc := &Document{MIMEType: MIMEPlain, Data: []byte("Jane   Doe\r\n\r\n\r\nSenior    Engineer  \n")}

	text, err := ExtractText(doc)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Engineer", text)
}

func TestExtractText_HTML(t *testing.T) {
	html := `<html><head><style>p{}</style></head><body>
		<nav>Menu</nav>
		<h1>Jane Doe</h1>
		<p>Platform engineer</p>
		<ul><li>Go</li><li>Kubernetes</li></ul>
		<script>track()</script>
	</body></html>`

	text, err := ExtractText(&Document{MIMEType: MIMEHTML, Data: []byte(html)})
	require.NoError(t, err)

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Platform engineer")
	assert.Contains(t, text, "Kubernetes")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "Menu")
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText(&Document{MIMEType: "application/zip", Data: []byte("PK")})

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "application/zip", unsupported.MIMEType)
}

func TestExtractText_Empty(t *testing.T) {
	_, err := ExtractText(&Document{MIMEType: MIMEPlain, Data: []byte(" \n\t\n")})

	var docErr *Error
	assert.ErrorAs(t, err, &docErr)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText(&Document{MIMEType: MIMEPDF, Data: []byte("%PDF-1.4 truncated")})
	assert.Error(t, err)
}

func TestExtractText_CorruptDocx(t *testing.T) {
	_, err := ExtractText(&Document{MIMEType: MIMEDocx, Data: []byte("not a zip")})

	var docErr *Error
	require.ErrorAs(t, err, &docErr)
	assert.True(t, strings.Contains(docErr.Message, "docx"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "a b\nc", CleanText("  a \t  b \r\n\n c "))
}
