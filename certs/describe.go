package certs

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/georgepadayatti/goades/algorithms"
	"github.com/georgepadayatti/goades/diagnostic"
)

// Extension OIDs from RFC 6960 and ETSI EN 319 412-5
var (
	OIDOCSPNoCheck  = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 5}
	OIDQcStatements = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 3}
	OIDQcCompliance = asn1.ObjectIdentifier{0, 4, 0, 1862, 1, 1}
	OIDQcSSCD       = asn1.ObjectIdentifier{0, 4, 0, 1862, 1, 4}
)

// ID returns the identifier of cert in diagnostic data: "C-" followed by
// the upper case hex SHA-256 digest of its DER encoding.
func ID(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return "C-" + strings.ToUpper(hex.EncodeToString(sum[:]))
}

// signatureNames maps x509 signature algorithms to the registry names.
var signatureNames = map[x509.SignatureAlgorithm]string{
	x509.MD5WithRSA:       "RSA_MD5",
	x509.SHA1WithRSA:      "RSA_SHA1",
	x509.SHA256WithRSA:    "RSA_SHA256",
	x509.SHA384WithRSA:    "RSA_SHA384",
	x509.SHA512WithRSA:    "RSA_SHA512",
	x509.SHA256WithRSAPSS: "RSA_SSA_PSS_SHA256_MGF1",
	x509.SHA512WithRSAPSS: "RSA_SSA_PSS_SHA512_MGF1",
	x509.DSAWithSHA1:      "DSA_SHA1",
	x509.DSAWithSHA256:    "DSA_SHA256",
	x509.ECDSAWithSHA1:    "ECDSA_SHA1",
	x509.ECDSAWithSHA256:  "ECDSA_SHA256",
	x509.ECDSAWithSHA384:  "ECDSA_SHA384",
	x509.ECDSAWithSHA512:  "ECDSA_SHA512",
	x509.PureEd25519:      "ED25519",
}

var keyUsageNames = []struct {
	usage x509.KeyUsage
	name  string
}{
	{x509.KeyUsageDigitalSignature, "digitalSignature"},
	{x509.KeyUsageContentCommitment, "nonRepudiation"},
	{x509.KeyUsageKeyEncipherment, "keyEncipherment"},
	{x509.KeyUsageDataEncipherment, "dataEncipherment"},
	{x509.KeyUsageKeyAgreement, "keyAgreement"},
	{x509.KeyUsageCertSign, "keyCertSign"},
	{x509.KeyUsageCRLSign, "crlSign"},
	{x509.KeyUsageEncipherOnly, "encipherOnly"},
	{x509.KeyUsageDecipherOnly, "decipherOnly"},
}

// Describe converts cert into a diagnostic certificate. The issuer link,
// the signature verification result and the trust flags are left to
// Snapshot.
func Describe(cert *x509.Certificate) (*diagnostic.Certificate, error) {
	c := &diagnostic.Certificate{
		ID:        ID(cert),
		Subject:   cert.Subject.String(),
		NotBefore: cert.NotBefore.UTC(),
		NotAfter:  cert.NotAfter.UTC(),
		PublicKey: publicKey(cert.PublicKey),
		Signature: basicSignature(cert.SignatureAlgorithm),
	}
	if cert.SerialNumber != nil {
		c.SerialNumber = cert.SerialNumber.String()
	}
	for _, ku := range keyUsageNames {
		if cert.KeyUsage&ku.usage != 0 {
			c.KeyUsages = append(c.KeyUsages, ku.name)
		}
	}

	for _, ext := range cert.Extensions {
		switch {
		case ext.Id.Equal(OIDOCSPNoCheck):
			c.OCSPNoCheck = true
		case ext.Id.Equal(OIDQcStatements):
			statements, err := parseQcStatements(ext.Value)
			if err != nil {
				return nil, fmt.Errorf("certificate %s: %w", c.Subject, err)
			}
			for _, oid := range statements {
				switch {
				case oid.Equal(OIDQcCompliance):
					c.QCCompliance = true
				case oid.Equal(OIDQcSSCD):
					c.QSCD = true
				}
			}
		}
	}
	return c, nil
}

// parseQcStatements returns the statement ids of a QCStatements extension.
func parseQcStatements(data []byte) ([]asn1.ObjectIdentifier, error) {
	var rawStatements []asn1.RawValue
	if _, err := asn1.Unmarshal(data, &rawStatements); err != nil {
		return nil, fmt.Errorf("failed to parse QC statements: %w", err)
	}

	var ids []asn1.ObjectIdentifier
	for _, raw := range rawStatements {
		var seq struct {
			OID   asn1.ObjectIdentifier
			Value asn1.RawValue `asn1:"optional"`
		}
		if _, err := asn1.Unmarshal(raw.FullBytes, &seq); err != nil {
			continue
		}
		ids = append(ids, seq.OID)
	}
	return ids, nil
}

func basicSignature(alg x509.SignatureAlgorithm) diagnostic.BasicSignature {
	sa, ok := algorithms.SignatureByName(signatureNames[alg])
	if !ok {
		return diagnostic.BasicSignature{}
	}
	return diagnostic.BasicSignature{
		EncryptionAlgorithm: sa.Encryption,
		DigestAlgorithm:     sa.Digest,
		SignatureAlgorithm:  sa.OID,
	}
}

func publicKey(key any) diagnostic.PublicKey {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return diagnostic.PublicKey{Algorithm: algorithms.RSA, Size: k.N.BitLen()}
	case *ecdsa.PublicKey:
		return diagnostic.PublicKey{Algorithm: algorithms.ECDSA, Size: k.Curve.Params().BitSize}
	case ed25519.PublicKey:
		return diagnostic.PublicKey{Algorithm: algorithms.EdDSA, Size: len(k) * 8}
	default:
		return diagnostic.PublicKey{}
	}
}
