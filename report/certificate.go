package report

import (
	"encoding/json"
	"time"

	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/validation/trace"
)

// ChainItem is a certificate of the validated chain.
type ChainItem struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject,omitempty"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	NotBefore    time.Time `json:"notBefore"`
	NotAfter     time.Time `json:"notAfter"`
	Trusted      bool      `json:"trusted,omitempty"`
}

// IsValidAt checks if the certificate was valid at the given time.
func (c *ChainItem) IsValidAt(at time.Time) bool {
	return !at.Before(c.NotBefore) && !at.After(c.NotAfter)
}

// SimpleCertificate is the simple report of a certificate validation.
type SimpleCertificate struct {
	ID             string       `json:"id"`
	ValidationTime time.Time    `json:"validationTime"`
	Certificate    string       `json:"certificate"`
	Chain          []*ChainItem `json:"chain,omitempty"`
	Qualification  string       `json:"qualification,omitempty"`
	Conclusion     *Conclusion  `json:"conclusion"`
	// Detail is the chain validation block.
	Detail *Block `json:"detail,omitempty"`
}

// ToJSON serializes the report to JSON.
func (r *SimpleCertificate) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// BuildCertificate renders the simple certificate report of tr.
func BuildCertificate(data *diagnostic.Data, tr *trace.Certificate, opts ...Option) *SimpleCertificate {
	b := newBuilder(data, opts)
	r := &SimpleCertificate{
		ID:             b.id,
		ValidationTime: tr.ValidationTime,
		Certificate:    tr.ID,
		Conclusion:     b.conclusion(tr.Conclusion),
	}
	if tr.Qualification != nil {
		r.Qualification = string(tr.Qualification.Qualification)
	}
	if tr.XCV != nil {
		r.Detail = b.block(tr.XCV.Block)
		for _, c := range tr.XCV.Chain {
			r.Chain = append(r.Chain, &ChainItem{
				ID:           c.ID,
				Subject:      c.Subject,
				SerialNumber: c.SerialNumber,
				NotBefore:    c.NotBefore,
				NotAfter:     c.NotAfter,
				Trusted:      c.Trusted,
			})
		}
	}
	return r
}
