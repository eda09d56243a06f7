package mimetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForFileName(t *testing.T) {
	r := Default()

	tests := []struct {
		name string
		want MimeType
	}{
		{"contract.pdf", PDF},
		{"CONTRACT.PDF", PDF},
		{"dir/sub/data.xml", XML},
		{`C:\docs\sig.p7s`, PKCS7},
		{"container.asice", ASiCE},
		{"noextension", Binary},
		{"archive.unknown", Binary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ForFileName(tt.name))
		})
	}
}

func TestWithExtensionReturnsCopy(t *testing.T) {
	base := Default()
	extended := base.WithExtension(".ers", "application/vnd.etsi.ers")

	mt, ok := extended.ByExtension("ERS")
	assert.True(t, ok)
	assert.Equal(t, MimeType("application/vnd.etsi.ers"), mt)

	_, ok = base.ByExtension("ers")
	assert.False(t, ok)
}

func TestNewAddsExtensions(t *testing.T) {
	r := New(map[string]MimeType{"xades": XML, "pdf": Binary})

	assert.Equal(t, XML, r.ForFileName("sig.xades"))
	assert.Equal(t, Binary, r.ForFileName("doc.pdf"))
	assert.Equal(t, PDF, Default().ForFileName("doc.pdf"))
}
