package certs

import (
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/georgepadayatti/goades/diagnostic"
)

var (
	thisUpdate = time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	nextUpdate = time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	revokedAt  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func createCRL(t *testing.T, issuer *testCert, entries ...x509.RevocationListEntry) []byte {
	t.Helper()
	der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:                    big.NewInt(1),
		ThisUpdate:                thisUpdate,
		NextUpdate:                nextUpdate,
		RevokedCertificateEntries: entries,
	}, issuer.cert, issuer.key)
	if err != nil {
		t.Fatalf("Failed to create CRL: %v", err)
	}
	return der
}

func createOCSP(t *testing.T, issuer *testCert, template ocsp.Response) []byte {
	t.Helper()
	template.ThisUpdate = thisUpdate
	template.NextUpdate = nextUpdate
	der, err := ocsp.CreateResponse(issuer.cert, issuer.cert, template, issuer.key)
	if err != nil {
		t.Fatalf("Failed to create OCSP response: %v", err)
	}
	return der
}

func TestReason(t *testing.T) {
	tests := []struct {
		code int
		want diagnostic.RevocationReason
	}{
		{ocsp.Unspecified, diagnostic.ReasonUnspecified},
		{ocsp.KeyCompromise, diagnostic.ReasonKeyCompromise},
		{ocsp.CACompromise, diagnostic.ReasonCACompromise},
		{ocsp.Superseded, diagnostic.ReasonSuperseded},
		{ocsp.CertificateHold, diagnostic.ReasonCertificateHold},
		{7, diagnostic.ReasonUnspecified},
		{ocsp.RemoveFromCRL, diagnostic.ReasonRemoveFromCRL},
		{ocsp.AACompromise, diagnostic.ReasonAACompromise},
		{42, diagnostic.ReasonUnspecified},
	}
	for _, tt := range tests {
		if got := Reason(tt.code); got != tt.want {
			t.Errorf("Reason(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParseRevocation(t *testing.T) {
	root := issue(t, rootTemplate("Root"), nil)
	crl := createCRL(t, root)
	resp := createOCSP(t, root, ocsp.Response{Status: ocsp.Good, SerialNumber: big.NewInt(42)})

	tests := []struct {
		name     string
		data     []byte
		wantCRL  bool
		wantOCSP bool
		wantErr  error
	}{
		{name: "DER CRL", data: crl, wantCRL: true},
		{name: "PEM CRL", data: pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: crl}), wantCRL: true},
		{name: "OCSP response", data: resp, wantOCSP: true},
		{name: "certificate", data: encodePEM(root.cert), wantErr: ErrUnsupportedRevocation},
		{name: "empty", data: nil, wantErr: ErrNoRevocation},
		{name: "garbage", data: []byte{0x30, 0x03, 0x02, 0x01}, wantErr: ErrMalformedRevocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRevocation(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRevocation failed: %v", err)
			}
			if (r.CRL != nil) != tt.wantCRL || (r.OCSP != nil) != tt.wantOCSP {
				t.Errorf("Unexpected revocation kind: CRL %v, OCSP %v", r.CRL != nil, r.OCSP != nil)
			}
		})
	}
}

func TestSnapshotRevocations(t *testing.T) {
	root := issue(t, rootTemplate("Root"), nil)
	leaf := issue(t, leafTemplate(t), root)
	other := issue(t, rootTemplate("Other Root"), nil)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	crl, err := ParseRevocation(createCRL(t, root, x509.RevocationListEntry{
		SerialNumber:   leaf.cert.SerialNumber,
		RevocationTime: revokedAt,
		ReasonCode:     ocsp.KeyCompromise,
	}))
	if err != nil {
		t.Fatalf("Failed to parse CRL: %v", err)
	}
	resp, err := ParseRevocation(createOCSP(t, root, ocsp.Response{
		Status:           ocsp.Revoked,
		SerialNumber:     leaf.cert.SerialNumber,
		RevokedAt:        revokedAt,
		RevocationReason: ocsp.Superseded,
	}))
	if err != nil {
		t.Fatalf("Failed to parse OCSP response: %v", err)
	}
	foreign, err := ParseRevocation(createCRL(t, other))
	if err != nil {
		t.Fatalf("Failed to parse foreign CRL: %v", err)
	}

	data, err := Snapshot(at, []*x509.Certificate{leaf.cert}, []*x509.Certificate{root.cert}, crl, resp, foreign, crl)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(data.Revocations) != 3 {
		t.Fatalf("Expected 3 revocations, got %d", len(data.Revocations))
	}

	c, ok := data.Revocation(RevocationID(crl))
	if !ok {
		t.Fatal("CRL not found")
	}
	if c.Type != diagnostic.RevocationCRL || !c.Signature.Intact || c.SigningCertificate != ID(root.cert) {
		t.Errorf("Unexpected CRL %+v", c)
	}
	if !c.ThisUpdate.Equal(thisUpdate) || c.NextUpdate == nil || !c.NextUpdate.Equal(nextUpdate) {
		t.Errorf("Unexpected CRL validity %s - %v", c.ThisUpdate, c.NextUpdate)
	}

	o, _ := data.Revocation(RevocationID(resp))
	if o.Type != diagnostic.RevocationOCSP || !o.Signature.Intact || o.SigningCertificate != ID(root.cert) {
		t.Errorf("Unexpected OCSP response %+v", o)
	}

	f, _ := data.Revocation(RevocationID(foreign))
	if f.Signature.Intact || f.SigningCertificate != "" {
		t.Errorf("Foreign CRL must not verify: %+v", f)
	}

	l, _ := data.Certificate(ID(leaf.cert))
	want := map[string]diagnostic.RevocationReason{
		RevocationID(crl):  diagnostic.ReasonKeyCompromise,
		RevocationID(resp): diagnostic.ReasonSuperseded,
	}
	if len(l.Revocations) != len(want) {
		t.Fatalf("Expected %d statuses, got %+v", len(want), l.Revocations)
	}
	for _, st := range l.Revocations {
		if !st.Revoked || st.Reason != want[st.Revocation] {
			t.Errorf("Unexpected status %+v", st)
		}
		if st.RevocationDate == nil || !st.RevocationDate.Equal(revokedAt) {
			t.Errorf("Unexpected revocation date %v", st.RevocationDate)
		}
	}

	r, _ := data.Certificate(ID(root.cert))
	if len(r.Revocations) != 0 {
		t.Errorf("Root must not get a status: %+v", r.Revocations)
	}
}
