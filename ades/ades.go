// Package ades holds the verdict vocabulary of ETSI EN 319 102-1:
// indications, sub-indications and conclusions with their ordered message
// trail.
package ades

import (
	"github.com/georgepadayatti/goades/messages"
)

// Indication is the coarse outcome of a validation.
type Indication string

// Validation Indication values per ETSI EN 319 102-1
const (
	TotalPassed      Indication = "TOTAL_PASSED"
	TotalFailed      Indication = "TOTAL_FAILED"
	Indeterminate    Indication = "INDETERMINATE"
	Passed           Indication = "PASSED"
	Failed           Indication = "FAILED"
	NoSignatureFound Indication = "NO_SIGNATURE_FOUND"
)

// IsPassed reports whether i is PASSED or TOTAL_PASSED.
func (i Indication) IsPassed() bool {
	return i == Passed || i == TotalPassed
}

// IsFailed reports whether i is FAILED or TOTAL_FAILED.
func (i Indication) IsFailed() bool {
	return i == Failed || i == TotalFailed
}

// IsIndeterminate reports whether i is INDETERMINATE.
func (i Indication) IsIndeterminate() bool {
	return i == Indeterminate
}

// Total maps a block indication to the indication used for a signature.
func (i Indication) Total() Indication {
	switch i {
	case Passed:
		return TotalPassed
	case Failed:
		return TotalFailed
	default:
		return i
	}
}

// Block maps a signature indication to the indication used for blocks,
// timestamps and evidence records.
func (i Indication) Block() Indication {
	switch i {
	case TotalPassed:
		return Passed
	case TotalFailed:
		return Failed
	default:
		return i
	}
}

// Severity orders indications from best (0) to worst.
func (i Indication) Severity() int {
	switch {
	case i.IsPassed():
		return 0
	case i.IsIndeterminate():
		return 1
	case i.IsFailed():
		return 2
	default:
		return 3
	}
}

// SubIndication refines an INDETERMINATE or FAILED indication.
type SubIndication string

// Sub-indication values per ETSI EN 319 102-1
const (
	// FAILED sub-indications
	FormatFailure         SubIndication = "FORMAT_FAILURE"
	HashFailure           SubIndication = "HASH_FAILURE"
	SigCryptoFailure      SubIndication = "SIG_CRYPTO_FAILURE"
	Revoked               SubIndication = "REVOKED"
	Expired               SubIndication = "EXPIRED"
	NotYetValid           SubIndication = "NOT_YET_VALID"
	SigConstraintsFailure SubIndication = "SIG_CONSTRAINTS_FAILURE"

	// INDETERMINATE sub-indications
	ChainConstraintsFailure        SubIndication = "CHAIN_CONSTRAINTS_FAILURE"
	CertificateChainGeneralFailure SubIndication = "CERTIFICATE_CHAIN_GENERAL_FAILURE"
	CryptoConstraintsFailure       SubIndication = "CRYPTO_CONSTRAINTS_FAILURE"
	CryptoConstraintsFailureNoPOE  SubIndication = "CRYPTO_CONSTRAINTS_FAILURE_NO_POE"
	OutOfBoundsNoPOE               SubIndication = "OUT_OF_BOUNDS_NO_POE"
	OutOfBoundsNotRevoked          SubIndication = "OUT_OF_BOUNDS_NOT_REVOKED"
	RevokedNoPOE                   SubIndication = "REVOKED_NO_POE"
	RevokedCANoPOE                 SubIndication = "REVOKED_CA_NO_POE"
	RevocationOutOfBoundsNoPOE     SubIndication = "REVOCATION_OUT_OF_BOUNDS_NO_POE"
	NoCertificateChainFound        SubIndication = "NO_CERTIFICATE_CHAIN_FOUND"
	NoCertificateChainFoundNoPOE   SubIndication = "NO_CERTIFICATE_CHAIN_FOUND_NO_POE"
	NoSigningCertificateFound      SubIndication = "NO_SIGNING_CERTIFICATE_FOUND"
	SignedDataNotFound             SubIndication = "SIGNED_DATA_NOT_FOUND"
	NoPOE                          SubIndication = "NO_POE"
	TryLater                       SubIndication = "TRY_LATER"
	TimestampOrderFailure          SubIndication = "TIMESTAMP_ORDER_FAILURE"
)

// IsPOEDependent reports whether an INDETERMINATE result with this
// sub-indication may be resolved by a proof of existence in the past.
func (s SubIndication) IsPOEDependent() bool {
	switch s {
	case OutOfBoundsNoPOE, OutOfBoundsNotRevoked,
		RevokedNoPOE, RevokedCANoPOE, RevocationOutOfBoundsNoPOE,
		CryptoConstraintsFailureNoPOE, TryLater,
		NoCertificateChainFoundNoPOE:
		return true
	default:
		return false
	}
}

// Conclusion is the outcome of a block together with its message trail.
type Conclusion struct {
	Indication    Indication         `json:"indication"`
	SubIndication SubIndication      `json:"subIndication,omitempty"`
	Errors        []messages.Message `json:"errors,omitempty"`
	Warnings      []messages.Message `json:"warnings,omitempty"`
	Infos         []messages.Message `json:"infos,omitempty"`
}

// NewConclusion creates a conclusion with the given indication.
func NewConclusion(indication Indication, sub SubIndication) *Conclusion {
	return &Conclusion{Indication: indication, SubIndication: sub}
}

// AddError appends an error message.
func (c *Conclusion) AddError(m messages.Message) {
	c.Errors = append(c.Errors, m)
}

// AddWarning appends a warning message.
func (c *Conclusion) AddWarning(m messages.Message) {
	c.Warnings = append(c.Warnings, m)
}

// AddInfo appends an information message.
func (c *Conclusion) AddInfo(m messages.Message) {
	c.Infos = append(c.Infos, m)
}

// IsPassed returns true if the indication is PASSED or TOTAL_PASSED.
func (c *Conclusion) IsPassed() bool {
	return c != nil && c.Indication.IsPassed()
}

// IsFailed returns true if the indication is FAILED or TOTAL_FAILED.
func (c *Conclusion) IsFailed() bool {
	return c != nil && c.Indication.IsFailed()
}

// IsIndeterminate returns true if the indication is INDETERMINATE.
func (c *Conclusion) IsIndeterminate() bool {
	return c != nil && c.Indication.IsIndeterminate()
}

// Clone returns a deep copy of c.
func (c *Conclusion) Clone() *Conclusion {
	if c == nil {
		return nil
	}
	out := &Conclusion{Indication: c.Indication, SubIndication: c.SubIndication}
	out.Errors = append(out.Errors, c.Errors...)
	out.Warnings = append(out.Warnings, c.Warnings...)
	out.Infos = append(out.Infos, c.Infos...)
	return out
}

// Absorb appends the messages of other to c without touching the
// indication.
func (c *Conclusion) Absorb(other *Conclusion) {
	if other == nil {
		return
	}
	c.Errors = append(c.Errors, other.Errors...)
	c.Warnings = append(c.Warnings, other.Warnings...)
	c.Infos = append(c.Infos, other.Infos...)
}

// Worst returns the most severe of the given conclusions. Ties keep the
// first one.
func Worst(conclusions ...*Conclusion) *Conclusion {
	var worst *Conclusion
	for _, c := range conclusions {
		if c == nil {
			continue
		}
		if worst == nil || c.Indication.Severity() > worst.Indication.Severity() {
			worst = c
		}
	}
	return worst
}
