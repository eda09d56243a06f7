package report

import (
	"encoding/json"
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/mimetype"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/validation/trace"
)

// Scope values of a signature scope.
const (
	ScopeFull    = "FULL"
	ScopeDigest  = "DIGEST"
	ScopeArchive = "ARCHIVE_OBJECT"
)

// SignatureScope is a data object covered by a token. Timestamp scopes
// name the covered tokens and carry no MIME type.
type SignatureScope struct {
	Name     string            `json:"name"`
	Scope    string            `json:"scope"`
	MimeType mimetype.MimeType `json:"mimeType,omitempty"`
}

// TimestampInfo is the simple report entry of a timestamp attached to an
// item.
type TimestampInfo struct {
	ID             string                   `json:"id"`
	Type           diagnostic.TimestampType `json:"type"`
	ProductionTime time.Time                `json:"productionTime"`
	Qualification  string                   `json:"qualification,omitempty"`
	Conclusion     *Conclusion              `json:"conclusion"`
}

// Item is the simple report entry of a top-level item.
type Item struct {
	ID     string              `json:"id"`
	Kind   diagnostic.ItemKind `json:"kind"`
	Format string              `json:"format,omitempty"`
	// Parent is the id of the signature a counter-signature signs.
	Parent string `json:"parent,omitempty"`
	// ValidationLevel is the highest level evaluated.
	ValidationLevel policy.ValidationLevel `json:"validationLevel"`

	SignedBy          string     `json:"signedBy,omitempty"`
	SigningTime       *time.Time `json:"signingTime,omitempty"`
	ProductionTime    *time.Time `json:"productionTime,omitempty"`
	BestSignatureTime *time.Time `json:"bestSignatureTime,omitempty"`

	Qualification string            `json:"qualification,omitempty"`
	Scopes        []*SignatureScope `json:"scopes,omitempty"`
	Timestamps    []*TimestampInfo  `json:"timestamps,omitempty"`
	Conclusion    *Conclusion       `json:"conclusion"`
}

// Simple is the simple validation report.
type Simple struct {
	ID               string            `json:"id"`
	ValidationTime   time.Time         `json:"validationTime"`
	ValidationPolicy *ValidationPolicy `json:"validationPolicy,omitempty"`
	Items            []*Item           `json:"items,omitempty"`
	Conclusion       *Conclusion       `json:"conclusion"`
}

// Item returns the entry with the given id.
func (r *Simple) Item(id string) (*Item, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// ItemCount returns the number of items.
func (r *Simple) ItemCount() int {
	return len(r.Items)
}

// PassedCount returns the number of passed items.
func (r *Simple) PassedCount() int {
	count := 0
	for _, it := range r.Items {
		if it.Conclusion.IsPassed() {
			count++
		}
	}
	return count
}

// FailedCount returns the number of failed items.
func (r *Simple) FailedCount() int {
	count := 0
	for _, it := range r.Items {
		if it.Conclusion.IsFailed() {
			count++
		}
	}
	return count
}

// ComputeOverallConclusion computes the overall conclusion from all items.
func (r *Simple) ComputeOverallConclusion() {
	if len(r.Items) == 0 {
		r.Conclusion = &Conclusion{Indication: ades.NoSignatureFound}
		return
	}

	// Overall is PASSED only if all items are PASSED
	allPassed := true
	hasFailed := false
	var firstSubInd ades.SubIndication

	for _, it := range r.Items {
		if it.Conclusion == nil {
			allPassed = false
			continue
		}
		if it.Conclusion.IsFailed() && !hasFailed {
			hasFailed = true
			firstSubInd = it.Conclusion.SubIndication
		}
		if !it.Conclusion.IsPassed() {
			allPassed = false
			if firstSubInd == "" {
				firstSubInd = it.Conclusion.SubIndication
			}
		}
	}

	switch {
	case allPassed:
		r.Conclusion = &Conclusion{Indication: ades.Passed}
	case hasFailed:
		r.Conclusion = &Conclusion{Indication: ades.Failed, SubIndication: firstSubInd}
	default:
		r.Conclusion = &Conclusion{Indication: ades.Indeterminate, SubIndication: firstSubInd}
	}
}

// ToJSON serializes the report to JSON.
func (r *Simple) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (b *builder) simple(p *policy.Policy, tr *trace.Trace) *Simple {
	r := &Simple{
		ID:             b.id,
		ValidationTime: tr.ValidationTime,
	}
	if p != nil {
		r.ValidationPolicy = &ValidationPolicy{Name: p.Name, Description: p.Description}
	}
	for _, it := range tr.Items {
		r.Items = append(r.Items, b.simpleItem(it))
	}
	r.ComputeOverallConclusion()
	return r
}

func (b *builder) simpleItem(it *trace.Item) *Item {
	out := &Item{
		ID:              it.ID,
		Kind:            it.Kind,
		ValidationLevel: it.Reached(),
		Conclusion:      b.conclusion(it.Conclusion),
	}
	if it.Qualification != nil {
		out.Qualification = string(it.Qualification.Qualification)
	}

	switch it.Kind {
	case diagnostic.KindSignature:
		s, _ := b.data.Signature(it.ID)
		out.Format = s.Format
		out.Parent = s.Parent
		out.SignedBy = b.subject(s.SigningCertificate)
		out.SigningTime = s.ClaimedSigningTime
		if !it.BestSignatureTime.IsZero() {
			bst := it.BestSignatureTime
			out.BestSignatureTime = &bst
		}
		for _, m := range s.DigestMatchers {
			if m.Type == diagnostic.MatcherMessageImprint {
				continue
			}
			out.Scopes = append(out.Scopes, b.scope(m.Name, ScopeFull))
		}
	case diagnostic.KindTimestamp:
		t, _ := b.data.Timestamp(it.ID)
		out.SignedBy = b.subject(t.SigningCertificate)
		pt := t.ProductionTime
		out.ProductionTime = &pt
		for _, o := range t.TimestampedObjects {
			out.Scopes = append(out.Scopes, b.scope(o.ID, ScopeDigest))
		}
	case diagnostic.KindEvidenceRecord:
		e, _ := b.data.EvidenceRecord(it.ID)
		for _, m := range e.DigestMatchers {
			out.Scopes = append(out.Scopes, b.scope(m.Name, ScopeArchive))
		}
	}

	for _, ts := range it.Timestamps {
		info := &TimestampInfo{
			ID:             ts.Timestamp.ID,
			Type:           ts.Timestamp.Type,
			ProductionTime: ts.Timestamp.ProductionTime,
			Conclusion:     b.conclusion(ts.Conclusion),
		}
		if ts.Qualification != nil {
			info.Qualification = string(ts.Qualification.Qualification)
		}
		out.Timestamps = append(out.Timestamps, info)
	}
	return out
}

func (b *builder) scope(name, scope string) *SignatureScope {
	s := &SignatureScope{Name: name, Scope: scope}
	if name != "" && scope != ScopeDigest {
		s.MimeType = b.mimes.ForFileName(name)
	}
	return s
}

func (b *builder) subject(certID string) string {
	c, ok := b.data.Certificate(certID)
	if !ok {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.ID
}
