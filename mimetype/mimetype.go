// Package mimetype maps file names and extensions to MIME types for the
// signed documents named in reports.
package mimetype

import (
	"path"
	"strings"
)

// MimeType is a MIME type string such as "application/pdf".
type MimeType string

// Well-known MIME types.
const (
	Binary MimeType = "application/octet-stream"
	XML    MimeType = "text/xml"
	PDF    MimeType = "application/pdf"
	PKCS7  MimeType = "application/pkcs7-signature"
	JSON   MimeType = "application/json"
	ASiCS  MimeType = "application/vnd.etsi.asic-s+zip"
	ASiCE  MimeType = "application/vnd.etsi.asic-e+zip"
	Text   MimeType = "text/plain"
	PNG    MimeType = "image/png"
	JPEG   MimeType = "image/jpeg"
	ZIP    MimeType = "application/zip"
)

var defaultExtensions = map[string]MimeType{
	"xml":   XML,
	"pdf":   PDF,
	"p7s":   PKCS7,
	"p7m":   PKCS7,
	"json":  JSON,
	"asics": ASiCS,
	"scs":   ASiCS,
	"asice": ASiCE,
	"sce":   ASiCE,
	"txt":   Text,
	"png":   PNG,
	"jpg":   JPEG,
	"jpeg":  JPEG,
	"zip":   ZIP,
}

// Registry resolves MIME types. A Registry is immutable; WithExtension
// returns a modified copy.
type Registry struct {
	byExt map[string]MimeType
}

var defaultRegistry = &Registry{byExt: defaultExtensions}

// Default returns the built-in registry.
func Default() *Registry {
	return defaultRegistry
}

// New returns a registry containing the built-in extensions plus extra.
func New(extra map[string]MimeType) *Registry {
	r := defaultRegistry.clone()
	for ext, mt := range extra {
		r.byExt[normalizeExt(ext)] = mt
	}
	return r
}

// WithExtension returns a copy of r that maps ext to mt.
func (r *Registry) WithExtension(ext string, mt MimeType) *Registry {
	out := r.clone()
	out.byExt[normalizeExt(ext)] = mt
	return out
}

// ByExtension returns the MIME type registered for ext.
func (r *Registry) ByExtension(ext string) (MimeType, bool) {
	mt, ok := r.byExt[normalizeExt(ext)]
	return mt, ok
}

// ForFileName returns the MIME type of name, or Binary when the extension
// is unknown.
func (r *Registry) ForFileName(name string) MimeType {
	ext := path.Ext(strings.ReplaceAll(name, "\\", "/"))
	if ext == "" {
		return Binary
	}
	if mt, ok := r.ByExtension(ext); ok {
		return mt
	}
	return Binary
}

func (r *Registry) clone() *Registry {
	out := &Registry{byExt: make(map[string]MimeType, len(r.byExt)+1)}
	for k, v := range r.byExt {
		out.byExt[k] = v
	}
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
