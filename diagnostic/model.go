package diagnostic

import (
	"time"
)

// BasicSignature describes the cryptographic signature of a token.
type BasicSignature struct {
	EncryptionAlgorithm string `json:"encryptionAlgorithm,omitempty"`
	DigestAlgorithm     string `json:"digestAlgorithm,omitempty"`
	// SignatureAlgorithm is an optional OID or URI. When present it
	// determines both algorithm names.
	SignatureAlgorithm string `json:"signatureAlgorithm,omitempty"`
	KeyLength          int    `json:"keyLength,omitempty"`
	Intact             bool   `json:"intact"`
}

// PublicKey describes a certificate's subject public key.
type PublicKey struct {
	Algorithm string `json:"algorithm"`
	Size      int    `json:"size"`
}

// CertificateRevocation is one revocation status entry of a certificate.
type CertificateRevocation struct {
	Revocation     string           `json:"revocation"`
	Revoked        bool             `json:"revoked"`
	Reason         RevocationReason `json:"reason,omitempty"`
	RevocationDate *time.Time       `json:"revocationDate,omitempty"`
}

// TrustService is a trusted list service covering a certificate.
type TrustService struct {
	Type   TrustServiceType   `json:"type"`
	Status TrustServiceStatus `json:"status"`
	Start  time.Time          `json:"start"`
	End    *time.Time         `json:"end,omitempty"`
}

// Covers reports whether the service period contains t.
func (s TrustService) Covers(t time.Time) bool {
	if t.Before(s.Start) {
		return false
	}
	return s.End == nil || t.Before(*s.End)
}

// Certificate is an X.509 certificate as seen by the validation process.
type Certificate struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject,omitempty"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	NotBefore    time.Time `json:"notBefore"`
	NotAfter     time.Time `json:"notAfter"`
	// SigningCertificate references the issuer. It is empty for
	// self-signed certificates and when the issuer is unknown.
	SigningCertificate string                  `json:"signingCertificate,omitempty"`
	Trusted            bool                    `json:"trusted,omitempty"`
	SelfSigned         bool                    `json:"selfSigned,omitempty"`
	PublicKey          PublicKey               `json:"publicKey"`
	Signature          BasicSignature          `json:"signature"`
	KeyUsages          []string                `json:"keyUsages,omitempty"`
	OCSPNoCheck        bool                    `json:"ocspNoCheck,omitempty"`
	Revocations        []CertificateRevocation `json:"revocations,omitempty"`
	QCCompliance       bool                    `json:"qcCompliance,omitempty"`
	QSCD               bool                    `json:"qscd,omitempty"`
	TrustServices      []TrustService          `json:"trustServices,omitempty"`
}

// ValidAt reports whether t is inside the validity period.
func (c *Certificate) ValidAt(t time.Time) bool {
	return !t.Before(c.NotBefore) && !t.After(c.NotAfter)
}

// HasKeyUsage reports whether the certificate carries usage.
func (c *Certificate) HasKeyUsage(usage string) bool {
	for _, u := range c.KeyUsages {
		if u == usage {
			return true
		}
	}
	return false
}

// Revocation is a CRL or OCSP response.
type Revocation struct {
	ID                 string         `json:"id"`
	Type               RevocationType `json:"type"`
	ProductionDate     time.Time      `json:"productionDate"`
	ThisUpdate         time.Time      `json:"thisUpdate"`
	NextUpdate         *time.Time     `json:"nextUpdate,omitempty"`
	SigningCertificate string         `json:"signingCertificate,omitempty"`
	CertificateChain   []string       `json:"certificateChain,omitempty"`
	Signature          BasicSignature `json:"signature"`
}

// DigestMatcher reports whether a referenced data object was found and
// whether its digest matched.
type DigestMatcher struct {
	Type            DigestMatcherType `json:"type"`
	Name            string            `json:"name,omitempty"`
	DigestAlgorithm string            `json:"digestAlgorithm,omitempty"`
	DataFound       bool              `json:"dataFound"`
	DataIntact      bool              `json:"dataIntact"`
}

// Signature is an AdES signature or counter-signature.
type Signature struct {
	ID                 string          `json:"id"`
	Format             string          `json:"format,omitempty"`
	ClaimedSigningTime *time.Time      `json:"claimedSigningTime,omitempty"`
	SigningCertificate string          `json:"signingCertificate,omitempty"`
	CertificateChain   []string        `json:"certificateChain,omitempty"`
	Timestamps         []string        `json:"timestamps,omitempty"`
	DigestMatchers     []DigestMatcher `json:"digestMatchers,omitempty"`
	Signature          BasicSignature  `json:"signature"`
	CounterSignature   bool            `json:"counterSignature,omitempty"`
	Parent             string          `json:"parent,omitempty"`
}

// TimestampedObject is a token covered by a timestamp or evidence record.
type TimestampedObject struct {
	ID       string         `json:"id"`
	Category ObjectCategory `json:"category"`
}

// Timestamp is an RFC 3161 timestamp token.
type Timestamp struct {
	ID                 string              `json:"id"`
	Type               TimestampType       `json:"type"`
	ProductionTime     time.Time           `json:"productionTime"`
	MessageImprint     DigestMatcher       `json:"messageImprint"`
	SigningCertificate string              `json:"signingCertificate,omitempty"`
	CertificateChain   []string            `json:"certificateChain,omitempty"`
	Signature          BasicSignature      `json:"signature"`
	TimestampedObjects []TimestampedObject `json:"timestampedObjects,omitempty"`
	// EvidenceRecords lists the evidence records covering this timestamp.
	EvidenceRecords []string `json:"evidenceRecords,omitempty"`
}

// Covers reports whether the timestamp covers the token id.
func (t *Timestamp) Covers(id string) bool {
	for _, o := range t.TimestampedObjects {
		if o.ID == id {
			return true
		}
	}
	return false
}

// EvidenceRecord is an RFC 4998 evidence record.
type EvidenceRecord struct {
	ID string `json:"id"`
	// Timestamps are ordered from the first (oldest) to the last renewal.
	Timestamps     []string            `json:"timestamps"`
	DigestMatchers []DigestMatcher     `json:"digestMatchers,omitempty"`
	CoveredObjects []TimestampedObject `json:"coveredObjects,omitempty"`
}

// DataIntact reports whether every digest matcher of the record is found
// and intact.
func (e *EvidenceRecord) DataIntact() bool {
	for _, m := range e.DigestMatchers {
		if !m.DataFound || !m.DataIntact {
			return false
		}
	}
	return true
}
