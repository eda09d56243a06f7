// Package messages provides the stable message keys used by the validation
// process together with a localisable text catalogue.
//
// A message key never changes with the display language, so callers and
// tests assert on keys while reports render text through a Catalog.
package messages

import (
	"fmt"
	"strings"
	"time"
)

// Tag is the stable identifier of a message.
type Tag string

// Basic building blocks.
const (
	BBB_ICS_ISCI     Tag = "BBB_ICS_ISCI"
	BBB_ICS_ISCI_ANS Tag = "BBB_ICS_ISCI_ANS"

	BBB_CV_IRDOF     Tag = "BBB_CV_IRDOF"
	BBB_CV_IRDOF_ANS Tag = "BBB_CV_IRDOF_ANS"
	BBB_CV_IRDOI     Tag = "BBB_CV_IRDOI"
	BBB_CV_IRDOI_ANS Tag = "BBB_CV_IRDOI_ANS"
	BBB_CV_ISI       Tag = "BBB_CV_ISI"
	BBB_CV_ISI_ANS   Tag = "BBB_CV_ISI_ANS"

	BBB_SAV_TSP_IMIDF     Tag = "BBB_SAV_TSP_IMIDF"
	BBB_SAV_TSP_IMIDF_ANS Tag = "BBB_SAV_TSP_IMIDF_ANS"
	BBB_SAV_TSP_IMIVC     Tag = "BBB_SAV_TSP_IMIVC"
	BBB_SAV_TSP_IMIVC_ANS Tag = "BBB_SAV_TSP_IMIVC_ANS"

	BBB_RAC_IRDA     Tag = "BBB_RAC_IRDA"
	BBB_RAC_IRDA_ANS Tag = "BBB_RAC_IRDA_ANS"
)

// Cryptographic constraints.
const (
	ACCM               Tag = "ACCM"
	ACCM_POS_SIG_SIG   Tag = "ACCM_POS_SIG_SIG"
	ACCM_POS_SIG_CERT  Tag = "ACCM_POS_SIG_CERT"
	ACCM_POS_CA_CERT   Tag = "ACCM_POS_CA_CERT"
	ACCM_POS_REVOC_SIG Tag = "ACCM_POS_REVOC_SIG"
	ACCM_POS_TST_SIG   Tag = "ACCM_POS_TST_SIG"
	ACCM_POS_MESS_IMP  Tag = "ACCM_POS_MESS_IMP"
	ACCM_POS_REF       Tag = "ACCM_POS_REF"
	ACCM_POS_ER        Tag = "ACCM_POS_ER"

	ASCCM_DAA          Tag = "ASCCM_DAA"
	ASCCM_DAA_ANS      Tag = "ASCCM_DAA_ANS"
	ASCCM_EAA          Tag = "ASCCM_EAA"
	ASCCM_EAA_ANS      Tag = "ASCCM_EAA_ANS"
	ASCCM_APKSA        Tag = "ASCCM_APKSA"
	ASCCM_APKSA_ANS    Tag = "ASCCM_APKSA_ANS"
	ASCCM_AR           Tag = "ASCCM_AR"
	ASCCM_AR_ANS_ANR   Tag = "ASCCM_AR_ANS_ANR"
	ASCCM_AR_ANS_AKSNR Tag = "ASCCM_AR_ANS_AKSNR"
)

// Certificate chain validation.
const (
	BBB_XCV_CCCBB         Tag = "BBB_XCV_CCCBB"
	BBB_XCV_CCCBB_ANS     Tag = "BBB_XCV_CCCBB_ANS"
	BBB_XCV_SUB           Tag = "BBB_XCV_SUB"
	BBB_XCV_SUB_ANS       Tag = "BBB_XCV_SUB_ANS"
	BBB_XCV_ICSI          Tag = "BBB_XCV_ICSI"
	BBB_XCV_ICSI_ANS      Tag = "BBB_XCV_ICSI_ANS"
	BBB_XCV_ICTIVRSC      Tag = "BBB_XCV_ICTIVRSC"
	BBB_XCV_ICTIVRSC_ANS  Tag = "BBB_XCV_ICTIVRSC_ANS"
	BBB_XCV_ISCGKU        Tag = "BBB_XCV_ISCGKU"
	BBB_XCV_ISCGKU_ANS    Tag = "BBB_XCV_ISCGKU_ANS"
	BBB_XCV_IRDPFC        Tag = "BBB_XCV_IRDPFC"
	BBB_XCV_IRDPFC_ANS    Tag = "BBB_XCV_IRDPFC_ANS"
	BBB_XCV_IRDTFC        Tag = "BBB_XCV_IRDTFC"
	BBB_XCV_IRDTFC_ANS    Tag = "BBB_XCV_IRDTFC_ANS"
	BBB_XCV_ISCR          Tag = "BBB_XCV_ISCR"
	BBB_XCV_ISCR_ANS      Tag = "BBB_XCV_ISCR_ANS"
	BBB_XCV_ISCOH         Tag = "BBB_XCV_ISCOH"
	BBB_XCV_ISCOH_ANS     Tag = "BBB_XCV_ISCOH_ANS"
	BBB_XCV_IRIF          Tag = "BBB_XCV_IRIF"
	BBB_XCV_IRIF_ANS      Tag = "BBB_XCV_IRIF_ANS"
	BBB_XCV_OCSP_NO_CHECK Tag = "BBB_XCV_OCSP_NO_CHECK"
)

// Validation process levels.
const (
	ADEST_ROBVPIIC      Tag = "ADEST_ROBVPIIC"
	ADEST_ROBVPIIC_ANS  Tag = "ADEST_ROBVPIIC_ANS"
	ADEST_ITVPC         Tag = "ADEST_ITVPC"
	ADEST_ITVPC_ANS     Tag = "ADEST_ITVPC_ANS"
	ADEST_BST_INFO      Tag = "ADEST_BST_INFO"
	LTV_ABSV            Tag = "LTV_ABSV"
	LTV_ABSV_ANS        Tag = "LTV_ABSV_ANS"
	LTV_IPSVC           Tag = "LTV_IPSVC"
	LTV_IPSVC_ANS       Tag = "LTV_IPSVC_ANS"
	ARCH_LTVV           Tag = "ARCH_LTVV"
	ARCH_LTVV_ANS       Tag = "ARCH_LTVV_ANS"
	ARCH_IERVC          Tag = "ARCH_IERVC"
	ARCH_IERVC_ANS      Tag = "ARCH_IERVC_ANS"
	LEVEL_NOT_EVALUATED Tag = "LEVEL_NOT_EVALUATED"

	TSV_ASTPTCT        Tag = "TSV_ASTPTCT"
	TSV_ASTPTCT_ANS    Tag = "TSV_ASTPTCT_ANS"
	TSV_IBSTAIDOSC     Tag = "TSV_IBSTAIDOSC"
	TSV_IBSTAIDOSC_ANS Tag = "TSV_IBSTAIDOSC_ANS"
	TSV_ISCNVABST      Tag = "TSV_ISCNVABST"
	TSV_ISCNVABST_ANS  Tag = "TSV_ISCNVABST_ANS"
	TSV_WACRABST       Tag = "TSV_WACRABST"
	TSV_WACRABST_ANS   Tag = "TSV_WACRABST_ANS"
	ADEST_IRTPTBST     Tag = "ADEST_IRTPTBST"
	ADEST_IRTPTBST_ANS Tag = "ADEST_IRTPTBST_ANS"
)

// Past signature validation and validation time sliding.
const (
	PCV_IVTSC        Tag = "PCV_IVTSC"
	PCV_IVTSC_ANS    Tag = "PCV_IVTSC_ANS"
	VTS_IRDPFC       Tag = "VTS_IRDPFC"
	VTS_IRDPFC_ANS   Tag = "VTS_IRDPFC_ANS"
	VTS_ICTBRD       Tag = "VTS_ICTBRD"
	VTS_ICTBRD_ANS   Tag = "VTS_ICTBRD_ANS"
	VTS_CTS_REVOKED  Tag = "VTS_CTS_REVOKED"
	VTS_CTS_STALE    Tag = "VTS_CTS_STALE"
	VTS_CTS_CRYPTO   Tag = "VTS_CTS_CRYPTO"
	PSV_IPCVA        Tag = "PSV_IPCVA"
	PSV_IPCVA_ANS    Tag = "PSV_IPCVA_ANS"
	PSV_IPCVC        Tag = "PSV_IPCVC"
	PSV_IPCVC_ANS    Tag = "PSV_IPCVC_ANS"
	PSV_ITPOSVAOBCT  Tag = "PSV_ITPOSVAOBCT"
	PSV_ITPOOBCT_ANS Tag = "PSV_ITPOOBCT_ANS"
	PSV_IRIFAPT      Tag = "PSV_IRIFAPT"
	PSV_IRIFAPT_ANS  Tag = "PSV_IRIFAPT_ANS"
	PSV_IPTVC        Tag = "PSV_IPTVC"
	PSV_IPTVC_ANS    Tag = "PSV_IPTVC_ANS"
)

// Evidence records.
const (
	ER_IDOF     Tag = "ER_IDOF"
	ER_IDOF_ANS Tag = "ER_IDOF_ANS"
	ER_IDOI     Tag = "ER_IDOI"
	ER_IDOI_ANS Tag = "ER_IDOI_ANS"
	ER_HTSP     Tag = "ER_HTSP"
	ER_HTSP_ANS Tag = "ER_HTSP_ANS"
	ER_ITVC     Tag = "ER_ITVC"
	ER_ITVC_ANS Tag = "ER_ITVC_ANS"
)

// Qualification.
const (
	QUAL_HAS_GRANTED_AT     Tag = "QUAL_HAS_GRANTED_AT"
	QUAL_HAS_GRANTED_AT_ANS Tag = "QUAL_HAS_GRANTED_AT_ANS"
	QUAL_QC_AT              Tag = "QUAL_QC_AT"
	QUAL_QC_AT_ANS          Tag = "QUAL_QC_AT_ANS"
	QUAL_QSCD_AT            Tag = "QUAL_QSCD_AT"
	QUAL_QSCD_AT_ANS        Tag = "QUAL_QSCD_AT_ANS"
	QUAL_IS_ADES            Tag = "QUAL_IS_ADES"
	QUAL_IS_ADES_IND        Tag = "QUAL_IS_ADES_IND"
	QUAL_IS_ADES_INV        Tag = "QUAL_IS_ADES_INV"
	QUAL_TIME_GENERATION    Tag = "QUAL_TIME_GENERATION"
	QUAL_TIME_POE           Tag = "QUAL_TIME_POE"
	QUAL_TIME_ISSUANCE      Tag = "QUAL_TIME_ISSUANCE"
	QUAL_TIME_BEST_SIG      Tag = "QUAL_TIME_BEST_SIG"
)

// Message is a tag with its formatting arguments. Arguments may themselves
// be messages, which are rendered in the same language.
type Message struct {
	Tag  Tag   `json:"key"`
	Args []any `json:"args,omitempty"`
}

// New creates a message.
func New(tag Tag, args ...any) Message {
	return Message{Tag: tag, Args: args}
}

// IsZero reports whether m carries no tag.
func (m Message) IsZero() bool {
	return m.Tag == ""
}

// String renders the message in English.
func (m Message) String() string {
	return English().Text(m)
}

// stringArg renders a single argument without locale specific number
// formatting so key sizes and ids stay stable.
func stringArg(c *Catalog, a any) string {
	switch v := a.(type) {
	case Message:
		return c.Text(v)
	case Tag:
		return c.Text(Message{Tag: v})
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return "?"
		}
		return v.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}
