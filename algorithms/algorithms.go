// Package algorithms provides flat, immutable registries of the digest,
// encryption and signature algorithms known to the validation engine.
//
// Every registry is built once and indexed by canonical name, OID and URI.
// Lookups never panic; they return false when the algorithm is unknown.
package algorithms

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DigestAlgorithm describes a message digest algorithm.
type DigestAlgorithm struct {
	Name string
	OID  string
	URIs []string
	// Size is the digest length in bytes.
	Size  int
	newFn func() hash.Hash
}

// New returns a new hash computing this digest, or false when no
// implementation is available.
func (d DigestAlgorithm) New() (hash.Hash, bool) {
	if d.newFn == nil {
		return nil, false
	}
	return d.newFn(), true
}

// EncryptionAlgorithm describes a public key algorithm.
type EncryptionAlgorithm struct {
	Name string
	OIDs []string
}

// SignatureAlgorithm binds an encryption algorithm to a digest algorithm.
type SignatureAlgorithm struct {
	Name       string
	Encryption string
	// Digest is empty for algorithms without a separable digest.
	Digest string
	OID    string
	URI    string
}

// Digest algorithm names.
const (
	MD5       = "MD5"
	SHA1      = "SHA1"
	SHA224    = "SHA224"
	SHA256    = "SHA256"
	SHA384    = "SHA384"
	SHA512    = "SHA512"
	SHA3_224  = "SHA3-224"
	SHA3_256  = "SHA3-256"
	SHA3_384  = "SHA3-384"
	SHA3_512  = "SHA3-512"
	RIPEMD160 = "RIPEMD160"
)

// Encryption algorithm names.
const (
	RSA        = "RSA"
	RSASSAPSS  = "RSASSA-PSS"
	DSA        = "DSA"
	ECDSA      = "ECDSA"
	PlainECDSA = "PLAIN-ECDSA"
	EdDSA      = "EdDSA"
)

var digests = []DigestAlgorithm{
	{Name: MD5, OID: "1.2.840.113549.2.5", Size: 16, newFn: md5.New,
		URIs: []string{"http://www.w3.org/2001/04/xmldsig-more#md5"}},
	{Name: SHA1, OID: "1.3.14.3.2.26", Size: 20, newFn: sha1.New,
		URIs: []string{"http://www.w3.org/2000/09/xmldsig#sha1"}},
	{Name: SHA224, OID: "2.16.840.1.101.3.4.2.4", Size: 28, newFn: sha256.New224,
		URIs: []string{"http://www.w3.org/2001/04/xmldsig-more#sha224"}},
	{Name: SHA256, OID: "2.16.840.1.101.3.4.2.1", Size: 32, newFn: sha256.New,
		URIs: []string{"http://www.w3.org/2001/04/xmlenc#sha256"}},
	{Name: SHA384, OID: "2.16.840.1.101.3.4.2.2", Size: 48, newFn: sha512.New384,
		URIs: []string{"http://www.w3.org/2001/04/xmldsig-more#sha384"}},
	{Name: SHA512, OID: "2.16.840.1.101.3.4.2.3", Size: 64, newFn: sha512.New,
		URIs: []string{"http://www.w3.org/2001/04/xmlenc#sha512"}},
	{Name: SHA3_224, OID: "2.16.840.1.101.3.4.2.7", Size: 28, newFn: sha3.New224,
		URIs: []string{"http://www.w3.org/2007/05/xmldsig-more#sha3-224"}},
	{Name: SHA3_256, OID: "2.16.840.1.101.3.4.2.8", Size: 32, newFn: sha3.New256,
		URIs: []string{"http://www.w3.org/2007/05/xmldsig-more#sha3-256"}},
	{Name: SHA3_384, OID: "2.16.840.1.101.3.4.2.9", Size: 48, newFn: sha3.New384,
		URIs: []string{"http://www.w3.org/2007/05/xmldsig-more#sha3-384"}},
	{Name: SHA3_512, OID: "2.16.840.1.101.3.4.2.10", Size: 64, newFn: sha3.New512,
		URIs: []string{"http://www.w3.org/2007/05/xmldsig-more#sha3-512"}},
	{Name: RIPEMD160, OID: "1.3.36.3.2.1", Size: 20,
		URIs: []string{"http://www.w3.org/2001/04/xmlenc#ripemd160"}},
}

var encryptions = []EncryptionAlgorithm{
	{Name: RSA, OIDs: []string{"1.2.840.113549.1.1.1"}},
	{Name: RSASSAPSS, OIDs: []string{"1.2.840.113549.1.1.10"}},
	{Name: DSA, OIDs: []string{"1.2.840.10040.4.1"}},
	{Name: ECDSA, OIDs: []string{"1.2.840.10045.2.1"}},
	{Name: PlainECDSA, OIDs: []string{"0.4.0.127.0.7.1.1.4.1"}},
	{Name: EdDSA, OIDs: []string{"1.3.101.112", "1.3.101.113"}},
}

var signatures = []SignatureAlgorithm{
	{Name: "RSA_MD5", Encryption: RSA, Digest: MD5, OID: "1.2.840.113549.1.1.4",
		URI: "http://www.w3.org/2001/04/xmldsig-more#rsa-md5"},
	{Name: "RSA_SHA1", Encryption: RSA, Digest: SHA1, OID: "1.2.840.113549.1.1.5",
		URI: "http://www.w3.org/2000/09/xmldsig#rsa-sha1"},
	{Name: "RSA_SHA224", Encryption: RSA, Digest: SHA224, OID: "1.2.840.113549.1.1.14",
		URI: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha224"},
	{Name: "RSA_SHA256", Encryption: RSA, Digest: SHA256, OID: "1.2.840.113549.1.1.11",
		URI: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"},
	{Name: "RSA_SHA384", Encryption: RSA, Digest: SHA384, OID: "1.2.840.113549.1.1.12",
		URI: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384"},
	{Name: "RSA_SHA512", Encryption: RSA, Digest: SHA512, OID: "1.2.840.113549.1.1.13",
		URI: "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"},
	{Name: "RSA_SHA3_256", Encryption: RSA, Digest: SHA3_256, OID: "2.16.840.1.101.3.4.3.14",
		URI: "http://www.w3.org/2007/05/xmldsig-more#sha3-256-rsa-MGF1"},
	{Name: "RSA_SSA_PSS_SHA256_MGF1", Encryption: RSASSAPSS, Digest: SHA256,
		URI: "http://www.w3.org/2007/05/xmldsig-more#sha256-rsa-MGF1"},
	{Name: "RSA_SSA_PSS_SHA512_MGF1", Encryption: RSASSAPSS, Digest: SHA512,
		URI: "http://www.w3.org/2007/05/xmldsig-more#sha512-rsa-MGF1"},
	{Name: "DSA_SHA1", Encryption: DSA, Digest: SHA1, OID: "1.2.840.10040.4.3",
		URI: "http://www.w3.org/2000/09/xmldsig#dsa-sha1"},
	{Name: "DSA_SHA256", Encryption: DSA, Digest: SHA256, OID: "2.16.840.1.101.3.4.3.2",
		URI: "http://www.w3.org/2009/xmldsig11#dsa-sha256"},
	{Name: "ECDSA_SHA1", Encryption: ECDSA, Digest: SHA1, OID: "1.2.840.10045.4.1",
		URI: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha1"},
	{Name: "ECDSA_SHA224", Encryption: ECDSA, Digest: SHA224, OID: "1.2.840.10045.4.3.1",
		URI: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha224"},
	{Name: "ECDSA_SHA256", Encryption: ECDSA, Digest: SHA256, OID: "1.2.840.10045.4.3.2",
		URI: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"},
	{Name: "ECDSA_SHA384", Encryption: ECDSA, Digest: SHA384, OID: "1.2.840.10045.4.3.3",
		URI: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384"},
	{Name: "ECDSA_SHA512", Encryption: ECDSA, Digest: SHA512, OID: "1.2.840.10045.4.3.4",
		URI: "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512"},
	{Name: "ECDSA_SHA3_256", Encryption: ECDSA, Digest: SHA3_256, OID: "2.16.840.1.101.3.4.3.10",
		URI: "http://www.w3.org/2021/04/xmldsig-more#ecdsa-sha3-256"},
	{Name: "ED25519", Encryption: EdDSA, Digest: SHA512, OID: "1.3.101.112",
		URI: "http://www.w3.org/2021/04/xmldsig-more#eddsa-ed25519"},
	{Name: "ED448", Encryption: EdDSA, OID: "1.3.101.113",
		URI: "http://www.w3.org/2021/04/xmldsig-more#eddsa-ed448"},
}

// index is a set of lookup tables over one registry.
type index[T any] struct {
	byName map[string]T
	byOID  map[string]T
	byURI  map[string]T
}

func newIndex[T any]() index[T] {
	return index[T]{
		byName: make(map[string]T),
		byOID:  make(map[string]T),
		byURI:  make(map[string]T),
	}
}

// add registers v under its keys. The first registration of a key wins.
func (ix index[T]) add(v T, name string, oids, uris []string) {
	putOnce(ix.byName, normalizeName(name), v)
	for _, oid := range oids {
		if oid != "" {
			putOnce(ix.byOID, oid, v)
		}
	}
	for _, uri := range uris {
		if uri != "" {
			putOnce(ix.byURI, uri, v)
		}
	}
}

func putOnce[T any](m map[string]T, key string, v T) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

var (
	digestIndex     = buildDigestIndex()
	encryptionIndex = buildEncryptionIndex()
	signatureIndex  = buildSignatureIndex()
)

func buildDigestIndex() index[DigestAlgorithm] {
	ix := newIndex[DigestAlgorithm]()
	for _, d := range digests {
		ix.add(d, d.Name, []string{d.OID}, d.URIs)
	}
	return ix
}

func buildEncryptionIndex() index[EncryptionAlgorithm] {
	ix := newIndex[EncryptionAlgorithm]()
	for _, e := range encryptions {
		ix.add(e, e.Name, e.OIDs, nil)
	}
	// Common aliases seen in policies and diagnostic data.
	ix.add(encryptions[3], "EC", nil, nil)
	ix.add(encryptions[5], "ED25519", nil, nil)
	ix.add(encryptions[5], "ED448", nil, nil)
	ix.add(encryptions[1], "RSA-PSS", nil, nil)
	return ix
}

func buildSignatureIndex() index[SignatureAlgorithm] {
	ix := newIndex[SignatureAlgorithm]()
	for _, s := range signatures {
		ix.add(s, s.Name, []string{s.OID}, []string{s.URI})
	}
	return ix
}

// normalizeName folds case and separators so "SHA-256", "sha256" and
// "SHA_256" resolve to the same entry.
func normalizeName(name string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToUpper(r.Replace(name))
}

// DigestByName looks up a digest algorithm by name or alias.
func DigestByName(name string) (DigestAlgorithm, bool) {
	d, ok := digestIndex.byName[normalizeName(name)]
	return d, ok
}

// DigestByOID looks up a digest algorithm by OID.
func DigestByOID(oid string) (DigestAlgorithm, bool) {
	d, ok := digestIndex.byOID[oid]
	return d, ok
}

// DigestByURI looks up a digest algorithm by XML DSig URI.
func DigestByURI(uri string) (DigestAlgorithm, bool) {
	d, ok := digestIndex.byURI[uri]
	return d, ok
}

// EncryptionByName looks up an encryption algorithm by name or alias.
func EncryptionByName(name string) (EncryptionAlgorithm, bool) {
	e, ok := encryptionIndex.byName[normalizeName(name)]
	return e, ok
}

// EncryptionByOID looks up an encryption algorithm by OID.
func EncryptionByOID(oid string) (EncryptionAlgorithm, bool) {
	e, ok := encryptionIndex.byOID[oid]
	return e, ok
}

// SignatureByName looks up a signature algorithm by name.
func SignatureByName(name string) (SignatureAlgorithm, bool) {
	s, ok := signatureIndex.byName[normalizeName(name)]
	return s, ok
}

// SignatureByOID looks up a signature algorithm by OID.
func SignatureByOID(oid string) (SignatureAlgorithm, bool) {
	s, ok := signatureIndex.byOID[oid]
	return s, ok
}

// SignatureByURI looks up a signature algorithm by XML DSig URI.
func SignatureByURI(uri string) (SignatureAlgorithm, bool) {
	s, ok := signatureIndex.byURI[uri]
	return s, ok
}

// SignatureByIdentifier resolves an OID or a URI.
func SignatureByIdentifier(id string) (SignatureAlgorithm, bool) {
	if s, ok := SignatureByOID(id); ok {
		return s, true
	}
	return SignatureByURI(id)
}

// Digests returns all registered digest algorithms.
func Digests() []DigestAlgorithm {
	out := make([]DigestAlgorithm, len(digests))
	copy(out, digests)
	return out
}

// Encryptions returns all registered encryption algorithms.
func Encryptions() []EncryptionAlgorithm {
	out := make([]EncryptionAlgorithm, len(encryptions))
	copy(out, encryptions)
	return out
}

// CanonicalDigest returns the registered name of a digest algorithm.
func CanonicalDigest(name string) (string, bool) {
	d, ok := DigestByName(name)
	return d.Name, ok
}

// CanonicalEncryption returns the registered name of an encryption
// algorithm.
func CanonicalEncryption(name string) (string, bool) {
	e, ok := EncryptionByName(name)
	return e.Name, ok
}
