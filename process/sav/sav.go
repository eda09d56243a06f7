// Package sav implements the signature acceptance validation: the
// cryptographic constraint checks applied to the algorithms and key size
// of a token at a reference time.
package sav

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
)

// Input is the cryptographic material of one token.
type Input struct {
	// ID identifies the token the material belongs to.
	ID string

	// Position names the material in messages, one of the ACCM_POS_* tags.
	Position messages.Tag

	DigestAlgorithm     string
	EncryptionAlgorithm string
	KeyLength           int
}

// FromSignature builds the input for a basic signature.
func FromSignature(id string, position messages.Tag, bs diagnostic.BasicSignature) Input {
	return Input{
		ID:                  id,
		Position:            position,
		DigestAlgorithm:     bs.DigestAlgorithm,
		EncryptionAlgorithm: bs.EncryptionAlgorithm,
		KeyLength:           bs.KeyLength,
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	Block *process.Block

	// NotAfter is the earliest expiration date among the failed
	// expiration checks, zero when none failed.
	NotAfter time.Time
	// ExpiredAlgorithm is the algorithm whose expiration is NotAfter.
	ExpiredAlgorithm string
}

// Conclusion returns the conclusion of the evaluation.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Expired reports whether an expiration check failed.
func (r *Result) Expired() bool {
	return !r.NotAfter.IsZero()
}

func (r *Result) expire(at time.Time, algorithm string) {
	if r.NotAfter.IsZero() || at.Before(r.NotAfter) {
		r.NotAfter = at
		r.ExpiredAlgorithm = algorithm
	}
}

// Evaluate runs every cryptographic check of c against in at refTime.
// Each check is evaluated regardless of the others; the first FAIL level
// failure gives the conclusion.
func Evaluate(in Input, c *policy.CryptographicConstraint, refTime time.Time) *Result {
	res := &Result{Block: process.NewBlock(process.BlockSAV, in.ID)}
	if c == nil {
		return res
	}
	chain := process.NewIndependentChain(res.Block)
	position := messages.New(in.Position)

	if in.DigestAlgorithm != "" {
		chain.Check(process.Check{
			Level:         c.CheckLevel(c.DigestLevel),
			Question:      messages.New(messages.ASCCM_DAA),
			Answer:        messages.New(messages.ASCCM_DAA_ANS, in.DigestAlgorithm, position),
			Indication:    ades.Indeterminate,
			SubIndication: ades.CryptoConstraintsFailure,
		}, c.DigestAcceptable(in.DigestAlgorithm))
	}

	if in.EncryptionAlgorithm != "" {
		chain.Check(process.Check{
			Level:         c.CheckLevel(c.EncryptionLevel),
			Question:      messages.New(messages.ASCCM_EAA),
			Answer:        messages.New(messages.ASCCM_EAA_ANS, in.EncryptionAlgorithm, position),
			Indication:    ades.Indeterminate,
			SubIndication: ades.CryptoConstraintsFailure,
		}, c.EncryptionAcceptable(in.EncryptionAlgorithm))

		if minSize, ok := c.MinimumKeySize(in.EncryptionAlgorithm); ok {
			chain.Check(process.Check{
				Level:         c.CheckLevel(c.KeySizeLevel),
				Question:      messages.New(messages.ASCCM_APKSA),
				Answer:        messages.New(messages.ASCCM_APKSA_ANS, in.KeyLength, in.EncryptionAlgorithm, position),
				Indication:    ades.Indeterminate,
				SubIndication: ades.CryptoConstraintsFailure,
			}, in.KeyLength >= minSize)
		}
	}

	expirationLevel := c.ExpirationLevelAt(refTime)

	if in.DigestAlgorithm != "" {
		exp, ok := c.DigestExpiration(in.DigestAlgorithm)
		passed := !ok || !refTime.After(exp)
		if !passed && expirationLevel != policy.LevelIgnore {
			res.expire(exp, in.DigestAlgorithm)
		}
		chain.Check(process.Check{
			Level:         expirationLevel,
			Question:      messages.New(messages.ASCCM_AR, refTime),
			Answer:        messages.New(messages.ASCCM_AR_ANS_ANR, in.DigestAlgorithm, position),
			Indication:    ades.Indeterminate,
			SubIndication: ades.CryptoConstraintsFailureNoPOE,
			Info:          expirationInfo(exp, ok),
		}, passed)
	}

	if in.EncryptionAlgorithm != "" {
		exp, ok := c.EncryptionExpiration(in.EncryptionAlgorithm, in.KeyLength)
		passed := !ok || !refTime.After(exp)
		if !passed && expirationLevel != policy.LevelIgnore {
			res.expire(exp, in.EncryptionAlgorithm)
		}
		chain.Check(process.Check{
			Level:         expirationLevel,
			Question:      messages.New(messages.ASCCM_AR, refTime),
			Answer:        messages.New(messages.ASCCM_AR_ANS_AKSNR, in.EncryptionAlgorithm, in.KeyLength, position),
			Indication:    ades.Indeterminate,
			SubIndication: ades.CryptoConstraintsFailureNoPOE,
			Info:          expirationInfo(exp, ok),
		}, passed)
	}

	return res
}

// EvaluateDigest checks a digest algorithm alone, as used by digest
// matchers, message imprints and evidence record hashes.
func EvaluateDigest(id string, position messages.Tag, digest string, c *policy.CryptographicConstraint, refTime time.Time) *Result {
	return Evaluate(Input{ID: id, Position: position, DigestAlgorithm: digest}, c, refTime)
}

func expirationInfo(exp time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return "expiration: " + exp.UTC().Format(time.DateOnly)
}
