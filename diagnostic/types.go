package diagnostic

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ocsp"
)

// RevocationReason is an RFC 5280 CRLReason code.
type RevocationReason int

// Revocation reasons, sharing the codes of golang.org/x/crypto/ocsp.
const (
	ReasonUnspecified          RevocationReason = ocsp.Unspecified
	ReasonKeyCompromise        RevocationReason = ocsp.KeyCompromise
	ReasonCACompromise         RevocationReason = ocsp.CACompromise
	ReasonAffiliationChanged   RevocationReason = ocsp.AffiliationChanged
	ReasonSuperseded           RevocationReason = ocsp.Superseded
	ReasonCessationOfOperation RevocationReason = ocsp.CessationOfOperation
	ReasonCertificateHold      RevocationReason = ocsp.CertificateHold
	ReasonRemoveFromCRL        RevocationReason = ocsp.RemoveFromCRL
	ReasonPrivilegeWithdrawn   RevocationReason = ocsp.PrivilegeWithdrawn
	ReasonAACompromise         RevocationReason = ocsp.AACompromise
)

var reasonNames = map[RevocationReason]string{
	ReasonUnspecified:          "unspecified",
	ReasonKeyCompromise:        "keyCompromise",
	ReasonCACompromise:         "cACompromise",
	ReasonAffiliationChanged:   "affiliationChanged",
	ReasonSuperseded:           "superseded",
	ReasonCessationOfOperation: "cessationOfOperation",
	ReasonCertificateHold:      "certificateHold",
	ReasonRemoveFromCRL:        "removeFromCRL",
	ReasonPrivilegeWithdrawn:   "privilegeWithdrawn",
	ReasonAACompromise:         "aACompromise",
}

// String returns a human-readable representation of the reason.
func (r RevocationReason) String() string {
	switch r {
	case ReasonUnspecified:
		return "unspecified"
	case ReasonKeyCompromise:
		return "key compromise"
	case ReasonCACompromise:
		return "CA compromise"
	case ReasonAffiliationChanged:
		return "affiliation changed"
	case ReasonSuperseded:
		return "superseded"
	case ReasonCessationOfOperation:
		return "cessation of operation"
	case ReasonCertificateHold:
		return "certificate hold"
	case ReasonRemoveFromCRL:
		return "remove from CRL"
	case ReasonPrivilegeWithdrawn:
		return "privilege withdrawn"
	case ReasonAACompromise:
		return "AA compromise"
	default:
		return fmt.Sprintf("unknown reason (%d)", int(r))
	}
}

// MarshalText encodes the reason as its RFC 5280 name.
func (r RevocationReason) MarshalText() ([]byte, error) {
	name, ok := reasonNames[r]
	if !ok {
		return nil, fmt.Errorf("unknown revocation reason %d", int(r))
	}
	return []byte(name), nil
}

// UnmarshalText decodes an RFC 5280 reason name, case-insensitively.
func (r *RevocationReason) UnmarshalText(b []byte) error {
	for reason, name := range reasonNames {
		if strings.EqualFold(name, string(b)) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown revocation reason %q", string(b))
}

// RevocationType is the kind of revocation data.
type RevocationType string

// Revocation data types.
const (
	RevocationCRL  RevocationType = "CRL"
	RevocationOCSP RevocationType = "OCSP"
)

// TimestampType is the role of a timestamp.
type TimestampType string

// Timestamp types.
const (
	ContentTimestamp        TimestampType = "CONTENT_TIMESTAMP"
	SignatureTimestamp      TimestampType = "SIGNATURE_TIMESTAMP"
	ArchiveTimestamp        TimestampType = "ARCHIVE_TIMESTAMP"
	ValidationDataTimestamp TimestampType = "VALIDATION_DATA_TIMESTAMP"
	DocumentTimestamp       TimestampType = "DOCUMENT_TIMESTAMP"
	EvidenceRecordTimestamp TimestampType = "EVIDENCE_RECORD_TIMESTAMP"
)

func (t TimestampType) valid() bool {
	switch t {
	case ContentTimestamp, SignatureTimestamp, ArchiveTimestamp,
		ValidationDataTimestamp, DocumentTimestamp, EvidenceRecordTimestamp:
		return true
	}
	return false
}

// IsContent reports whether the timestamp covers signed content only.
func (t TimestampType) IsContent() bool {
	return t == ContentTimestamp
}

// IsArchival reports whether the timestamp protects validation material
// for the long term.
func (t TimestampType) IsArchival() bool {
	switch t {
	case ArchiveTimestamp, ValidationDataTimestamp, DocumentTimestamp, EvidenceRecordTimestamp:
		return true
	}
	return false
}

// ObjectCategory is the kind of token a timestamp or evidence record
// covers.
type ObjectCategory string

// Covered object categories.
const (
	CategorySignature      ObjectCategory = "SIGNATURE"
	CategoryTimestamp      ObjectCategory = "TIMESTAMP"
	CategoryCertificate    ObjectCategory = "CERTIFICATE"
	CategoryRevocation     ObjectCategory = "REVOCATION"
	CategoryEvidenceRecord ObjectCategory = "EVIDENCE_RECORD"
	CategorySignedData     ObjectCategory = "SIGNED_DATA"
)

// DigestMatcherType tells what a digest matcher compares.
type DigestMatcherType string

// Digest matcher types.
const (
	MatcherReference      DigestMatcherType = "REFERENCE"
	MatcherMessageDigest  DigestMatcherType = "MESSAGE_DIGEST"
	MatcherMessageImprint DigestMatcherType = "MESSAGE_IMPRINT"
	MatcherEvidenceRecord DigestMatcherType = "EVIDENCE_RECORD_ARCHIVE_OBJECT"
	MatcherSignedData     DigestMatcherType = "SIGNED_DATA"
)

// TrustServiceType is the service type of a trusted list entry.
type TrustServiceType string

// Trust service types.
const (
	ServiceQTST TrustServiceType = "QTST"
	ServiceTSA  TrustServiceType = "TSA"
	ServiceQCCA TrustServiceType = "CA/QC"
	ServiceCA   TrustServiceType = "CA/PKC"
)

// TrustServiceStatus is the status of a trust service over a period.
type TrustServiceStatus string

// Trust service statuses.
const (
	StatusGranted   TrustServiceStatus = "granted"
	StatusWithdrawn TrustServiceStatus = "withdrawn"
)
