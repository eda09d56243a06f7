package messages

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translation holds the texts of one language. Missing tags fall back to
// English.
type Translation struct {
	Language language.Tag
	Texts    map[Tag]string
}

// Catalog renders messages in one language.
type Catalog struct {
	lang    language.Tag
	printer *message.Printer
}

var (
	englishOnce    sync.Once
	englishCatalog *Catalog
)

// English returns the built-in English catalogue.
func English() *Catalog {
	englishOnce.Do(func() {
		c, err := NewCatalog(language.English)
		if err != nil {
			panic(fmt.Sprintf("messages: building English catalogue: %v", err))
		}
		englishCatalog = c
	})
	return englishCatalog
}

// NewCatalog builds a catalogue rendering in lang. The English texts are
// always registered; translations add or replace texts for their language.
func NewCatalog(lang language.Tag, translations ...Translation) (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, text := range englishTexts {
		if err := b.SetString(language.English, string(tag), text); err != nil {
			return nil, fmt.Errorf("registering %s: %w", tag, err)
		}
	}
	for _, t := range translations {
		for tag, text := range t.Texts {
			if err := b.SetString(t.Language, string(tag), text); err != nil {
				return nil, fmt.Errorf("registering %s for %s: %w", tag, t.Language, err)
			}
		}
	}
	return &Catalog{
		lang:    lang,
		printer: message.NewPrinter(lang, message.Catalog(b)),
	}, nil
}

// Language returns the catalogue language.
func (c *Catalog) Language() language.Tag {
	return c.lang
}

// Text renders m. Unknown tags render as the tag itself.
func (c *Catalog) Text(m Message) string {
	if m.IsZero() {
		return ""
	}
	args := make([]any, len(m.Args))
	for i, a := range m.Args {
		args[i] = stringArg(c, a)
	}
	return c.printer.Sprintf(string(m.Tag), args...)
}

// Known reports whether tag has an English text.
func Known(tag Tag) bool {
	_, ok := englishTexts[tag]
	return ok
}

var englishTexts = map[Tag]string{
	BBB_ICS_ISCI:          "Is there an identified candidate for the signing certificate?",
	BBB_ICS_ISCI_ANS:      "There is no candidate for the signing certificate!",
	BBB_CV_IRDOF:          "Is the reference data object found?",
	BBB_CV_IRDOF_ANS:      "The reference data object %s is not found!",
	BBB_CV_IRDOI:          "Is the reference data object intact?",
	BBB_CV_IRDOI_ANS:      "The reference data object %s is not intact!",
	BBB_CV_ISI:            "Is the signature intact?",
	BBB_CV_ISI_ANS:        "The signature is not intact!",
	BBB_SAV_TSP_IMIDF:     "Is message imprint data found?",
	BBB_SAV_TSP_IMIDF_ANS: "The timestamp message imprint data is not found!",
	BBB_SAV_TSP_IMIVC:     "Is message imprint verification conclusive?",
	BBB_SAV_TSP_IMIVC_ANS: "The timestamp message imprint verification has failed!",
	BBB_RAC_IRDA:          "Is the revocation data acceptable?",
	BBB_RAC_IRDA_ANS:      "The revocation data %s is not acceptable!",

	ACCM:               "Are cryptographic constraints met for the %s?",
	ACCM_POS_SIG_SIG:   "signature",
	ACCM_POS_SIG_CERT:  "signing certificate",
	ACCM_POS_CA_CERT:   "CA certificate",
	ACCM_POS_REVOC_SIG: "revocation data",
	ACCM_POS_TST_SIG:   "timestamp",
	ACCM_POS_MESS_IMP:  "message imprint",
	ACCM_POS_REF:       "reference data object",
	ACCM_POS_ER:        "evidence record",
	ASCCM_DAA:          "Is the digest algorithm acceptable?",
	ASCCM_DAA_ANS:      "The digest algorithm %s is not authorised for the %s!",
	ASCCM_EAA:          "Is the encryption algorithm acceptable?",
	ASCCM_EAA_ANS:      "The encryption algorithm %s is not authorised for the %s!",
	ASCCM_APKSA:        "Is the public key size acceptable?",
	ASCCM_APKSA_ANS:    "The public key size %s of algorithm %s is too small for the %s!",
	ASCCM_AR:           "Is the algorithm reliable at %s?",
	ASCCM_AR_ANS_ANR:   "The algorithm %s is no longer considered reliable for the %s!",
	ASCCM_AR_ANS_AKSNR: "The algorithm %s with key size %s is no longer considered reliable for the %s!",

	BBB_XCV_CCCBB:         "Can the certificate chain be built till a trust anchor?",
	BBB_XCV_CCCBB_ANS:     "The certificate chain is not trusted, it does not contain a trust anchor.",
	BBB_XCV_SUB:           "Is the certificate validation conclusive?",
	BBB_XCV_SUB_ANS:       "The certificate validation is not conclusive!",
	BBB_XCV_ICSI:          "Is the certificate's signature intact?",
	BBB_XCV_ICSI_ANS:      "The signature of the certificate is spoiled or it is not possible to validate it!",
	BBB_XCV_ICTIVRSC:      "Is the control time in the validity range of the certificate?",
	BBB_XCV_ICTIVRSC_ANS:  "The control time %s is not in the validity range of the certificate!",
	BBB_XCV_ISCGKU:        "Has the signing certificate the expected key usage?",
	BBB_XCV_ISCGKU_ANS:    "The signing certificate does not have the expected key usage %s!",
	BBB_XCV_IRDPFC:        "Is the revocation data present for the certificate?",
	BBB_XCV_IRDPFC_ANS:    "No revocation data for the certificate!",
	BBB_XCV_IRDTFC:        "Is the revocation data trusted for the certificate?",
	BBB_XCV_IRDTFC_ANS:    "The revocation data for the certificate is not trusted!",
	BBB_XCV_ISCR:          "Is the certificate not revoked?",
	BBB_XCV_ISCR_ANS:      "The certificate is revoked!",
	BBB_XCV_ISCOH:         "Is the certificate not on hold?",
	BBB_XCV_ISCOH_ANS:     "The certificate is on hold!",
	BBB_XCV_IRIF:          "Is the revocation information fresh for the certificate?",
	BBB_XCV_IRIF_ANS:      "The revocation status information is not considered as fresh.",
	BBB_XCV_OCSP_NO_CHECK: "The certificate has the id-pkix-ocsp-nocheck extension, revocation checks are skipped.",

	ADEST_ROBVPIIC:      "Is the result of the Basic Validation Process conclusive?",
	ADEST_ROBVPIIC_ANS:  "The result of the Basic validation process is not conclusive!",
	ADEST_ITVPC:         "Is the timestamp validation process conclusive?",
	ADEST_ITVPC_ANS:     "The validation of timestamp %s is not conclusive!",
	ADEST_BST_INFO:      "The best-signature-time was set to %s.",
	LTV_ABSV:            "Is the result of the Basic Validation Process acceptable?",
	LTV_ABSV_ANS:        "The result of the Basic validation process is not acceptable to continue the process!",
	LTV_IPSVC:           "Is the past signature validation conclusive?",
	LTV_IPSVC_ANS:       "The past signature validation is not conclusive!",
	ARCH_LTVV:           "Is the result of the LTV validation process acceptable?",
	ARCH_LTVV_ANS:       "The result of the LTV validation process is not acceptable to continue the process!",
	ARCH_IERVC:          "Is the evidence record validation conclusive?",
	ARCH_IERVC_ANS:      "The validation of evidence record %s is not conclusive!",
	LEVEL_NOT_EVALUATED: "The %s validation level was not evaluated.",

	TSV_ASTPTCT:        "Are timestamps in the right order?",
	TSV_ASTPTCT_ANS:    "The timestamps were not generated in the right order!",
	TSV_IBSTAIDOSC:     "Is the best-signature-time after the issuance date of the signing certificate?",
	TSV_IBSTAIDOSC_ANS: "The best-signature-time is before the issuance date of the signing certificate!",
	TSV_ISCNVABST:      "Is the signing certificate valid at the best-signature-time?",
	TSV_ISCNVABST_ANS:  "The signing certificate has expired before the best-signature-time!",
	TSV_WACRABST:       "Was the algorithm(s) considered reliable at best-signature-time?",
	TSV_WACRABST_ANS:   "The algorithm(s) was not considered reliable at best-signature-time!",
	ADEST_IRTPTBST:     "Is revocation time posterior to best-signature-time?",
	ADEST_IRTPTBST_ANS: "The revocation time is not posterior to best-signature-time!",

	PCV_IVTSC:        "Is validation time sliding conclusive?",
	PCV_IVTSC_ANS:    "The validation time sliding is not conclusive!",
	VTS_IRDPFC:       "Is there a satisfying revocation status information?",
	VTS_IRDPFC_ANS:   "No satisfying revocation status information found for the certificate %s!",
	VTS_ICTBRD:       "Is the issuance date of the revocation data before control-time?",
	VTS_ICTBRD_ANS:   "The issuance date of revocation data is not before control-time!",
	VTS_CTS_REVOKED:  "The control-time was set to the revocation time of certificate %s.",
	VTS_CTS_STALE:    "The control-time was set to the issuance date of revocation data %s.",
	VTS_CTS_CRYPTO:   "The control-time was set to the expiration date of algorithm %s.",
	PSV_IPCVA:        "Is past certificate validation acceptable?",
	PSV_IPCVA_ANS:    "The past certificate validation is not acceptable!",
	PSV_IPCVC:        "No POE, what is the current time validation?",
	PSV_IPCVC_ANS:    "The current time validation is not conclusive!",
	PSV_ITPOSVAOBCT:  "Is there a POE of the token at (or before) control-time?",
	PSV_ITPOOBCT_ANS: "No Proof Of Existence found at (or before) control-time!",
	PSV_IRIFAPT:      "Is the revocation information fresh at the POE time?",
	PSV_IRIFAPT_ANS:  "The revocation information is not fresh at the POE time!",
	PSV_IPTVC:        "Is the validation at the POE time conclusive?",
	PSV_IPTVC_ANS:    "The validation at the POE time %s is not conclusive!",

	ER_IDOF:     "Is the data object covered by the evidence record found?",
	ER_IDOF_ANS: "The data object %s covered by the evidence record is not found!",
	ER_IDOI:     "Is the data object covered by the evidence record intact?",
	ER_IDOI_ANS: "The data object %s covered by the evidence record is not intact!",
	ER_HTSP:     "Does the evidence record contain a timestamp?",
	ER_HTSP_ANS: "The evidence record does not contain any timestamp!",
	ER_ITVC:     "Is the basic timestamp validation conclusive?",
	ER_ITVC_ANS: "The basic validation of the evidence record timestamp %s is not conclusive!",

	QUAL_HAS_GRANTED_AT:     "Has a granted trust service at %s?",
	QUAL_HAS_GRANTED_AT_ANS: "The qualified status was not granted at %s!",
	QUAL_QC_AT:              "Is the certificate qualified at %s?",
	QUAL_QC_AT_ANS:          "The certificate is not qualified at %s!",
	QUAL_QSCD_AT:            "Is the private key on a QSCD at %s?",
	QUAL_QSCD_AT_ANS:        "The private key is not on a QSCD at %s!",
	QUAL_IS_ADES:            "Is the signature/seal an acceptable AdES?",
	QUAL_IS_ADES_IND:        "The signature/seal is an INDETERMINATE AdES!",
	QUAL_IS_ADES_INV:        "The signature/seal is not a valid AdES!",
	QUAL_TIME_GENERATION:    "generation time",
	QUAL_TIME_POE:           "POE time",
	QUAL_TIME_ISSUANCE:      "issuance time",
	QUAL_TIME_BEST_SIG:      "best signature time",
}
