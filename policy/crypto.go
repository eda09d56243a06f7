package policy

import (
	"sort"
	"strings"
	"time"

	"github.com/georgepadayatti/goades/algorithms"
)

// AlgoExpirationDate is one row of an algorithm expiration table. KeySize
// is zero for digest algorithms and for encryption entries valid for any
// key size.
type AlgoExpirationDate struct {
	Algorithm string
	KeySize   int
	Date      time.Time
}

// CryptographicConstraint holds the algorithm constraints of one context.
//
// Slices and maps left nil inherit from the enclosing constraint; an empty,
// non-nil slice means "nothing is acceptable".
type CryptographicConstraint struct {
	Level Level

	AcceptableDigestAlgorithms     []string
	AcceptableEncryptionAlgorithms []string
	MinimumKeySizes                map[string]int
	ExpirationDates                []AlgoExpirationDate

	UpdateDate       *time.Time
	LevelAfterUpdate Level

	DigestLevel     Level
	EncryptionLevel Level
	KeySizeLevel    Level
	ExpirationLevel Level
}

// Merge returns c with every unset field taken from parent. Neither
// receiver nor parent is modified.
func (c *CryptographicConstraint) Merge(parent *CryptographicConstraint) *CryptographicConstraint {
	if c == nil && parent == nil {
		return nil
	}
	if c == nil {
		return parent.clone()
	}
	out := c.clone()
	if parent == nil {
		return out
	}
	out.Level = out.Level.Or(parent.Level)
	if out.AcceptableDigestAlgorithms == nil {
		out.AcceptableDigestAlgorithms = cloneStrings(parent.AcceptableDigestAlgorithms)
	}
	if out.AcceptableEncryptionAlgorithms == nil {
		out.AcceptableEncryptionAlgorithms = cloneStrings(parent.AcceptableEncryptionAlgorithms)
	}
	if out.MinimumKeySizes == nil && parent.MinimumKeySizes != nil {
		out.MinimumKeySizes = make(map[string]int, len(parent.MinimumKeySizes))
		for k, v := range parent.MinimumKeySizes {
			out.MinimumKeySizes[k] = v
		}
	}
	if out.ExpirationDates == nil && parent.ExpirationDates != nil {
		out.ExpirationDates = append([]AlgoExpirationDate{}, parent.ExpirationDates...)
	}
	if out.UpdateDate == nil && parent.UpdateDate != nil {
		d := *parent.UpdateDate
		out.UpdateDate = &d
	}
	out.LevelAfterUpdate = out.LevelAfterUpdate.Or(parent.LevelAfterUpdate)
	out.DigestLevel = out.DigestLevel.Or(parent.DigestLevel)
	out.EncryptionLevel = out.EncryptionLevel.Or(parent.EncryptionLevel)
	out.KeySizeLevel = out.KeySizeLevel.Or(parent.KeySizeLevel)
	out.ExpirationLevel = out.ExpirationLevel.Or(parent.ExpirationLevel)
	return out
}

func (c *CryptographicConstraint) clone() *CryptographicConstraint {
	out := *c
	out.AcceptableDigestAlgorithms = cloneStrings(c.AcceptableDigestAlgorithms)
	out.AcceptableEncryptionAlgorithms = cloneStrings(c.AcceptableEncryptionAlgorithms)
	if c.MinimumKeySizes != nil {
		out.MinimumKeySizes = make(map[string]int, len(c.MinimumKeySizes))
		for k, v := range c.MinimumKeySizes {
			out.MinimumKeySizes[k] = v
		}
	}
	if c.ExpirationDates != nil {
		out.ExpirationDates = append([]AlgoExpirationDate{}, c.ExpirationDates...)
	}
	if c.UpdateDate != nil {
		d := *c.UpdateDate
		out.UpdateDate = &d
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

// CheckLevel returns the level of one check: the per-check level when
// configured, otherwise the block level.
func (c *CryptographicConstraint) CheckLevel(perCheck Level) Level {
	return perCheck.Or(c.Level)
}

// ExpirationLevelAt returns the level applied to expiration checks at
// refTime. Once the update date is reached, LevelAfterUpdate (when set)
// replaces the expiration level.
func (c *CryptographicConstraint) ExpirationLevelAt(refTime time.Time) Level {
	base := c.CheckLevel(c.ExpirationLevel)
	if c.UpdateDate != nil && !refTime.Before(*c.UpdateDate) && c.LevelAfterUpdate.IsSet() {
		return c.LevelAfterUpdate
	}
	return base
}

// DigestAcceptable reports whether name is an acceptable digest algorithm.
// A nil list accepts everything.
func (c *CryptographicConstraint) DigestAcceptable(name string) bool {
	if c.AcceptableDigestAlgorithms == nil {
		return true
	}
	return containsAlgorithm(c.AcceptableDigestAlgorithms, name, algorithms.CanonicalDigest)
}

// EncryptionAcceptable reports whether name is an acceptable encryption
// algorithm. A nil list accepts everything.
func (c *CryptographicConstraint) EncryptionAcceptable(name string) bool {
	if c.AcceptableEncryptionAlgorithms == nil {
		return true
	}
	return containsAlgorithm(c.AcceptableEncryptionAlgorithms, name, algorithms.CanonicalEncryption)
}

func containsAlgorithm(list []string, name string, canonical func(string) (string, bool)) bool {
	want := canonicalOr(name, canonical)
	for _, a := range list {
		if canonicalOr(a, canonical) == want {
			return true
		}
	}
	return false
}

func canonicalOr(name string, canonical func(string) (string, bool)) string {
	if c, ok := canonical(name); ok {
		return c
	}
	return strings.ToUpper(name)
}

// MinimumKeySize returns the configured minimum key size of an encryption
// algorithm.
func (c *CryptographicConstraint) MinimumKeySize(encryption string) (int, bool) {
	want := canonicalOr(encryption, algorithms.CanonicalEncryption)
	for a, size := range c.MinimumKeySizes {
		if canonicalOr(a, algorithms.CanonicalEncryption) == want {
			return size, true
		}
	}
	return 0, false
}

// DigestExpiration returns the expiration date of a digest algorithm.
func (c *CryptographicConstraint) DigestExpiration(digest string) (time.Time, bool) {
	want := canonicalOr(digest, algorithms.CanonicalDigest)
	for _, e := range c.ExpirationDates {
		if e.KeySize == 0 && canonicalOr(e.Algorithm, algorithms.CanonicalDigest) == want {
			return e.Date, true
		}
	}
	return time.Time{}, false
}

// EncryptionExpiration returns the expiration date of an encryption
// algorithm used with keySize. The entry with the largest configured key
// size not above keySize applies; an entry with key size zero matches any
// size. No matching entry means the algorithm has no configured date.
func (c *CryptographicConstraint) EncryptionExpiration(encryption string, keySize int) (time.Time, bool) {
	want := canonicalOr(encryption, algorithms.CanonicalEncryption)
	var candidates []AlgoExpirationDate
	for _, e := range c.ExpirationDates {
		if canonicalOr(e.Algorithm, algorithms.CanonicalEncryption) != want {
			continue
		}
		if _, isDigest := algorithms.DigestByName(e.Algorithm); isDigest {
			continue
		}
		if e.KeySize <= keySize {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return time.Time{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].KeySize > candidates[j].KeySize
	})
	return candidates[0].Date, true
}
