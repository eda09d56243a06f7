package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestEnglishRendering(t *testing.T) {
	c := English()

	msg := New(ASCCM_AR_ANS_AKSNR, "RSA", 1024, New(ACCM_POS_SIG_SIG))
	assert.Equal(t,
		"The algorithm RSA with key size 1024 is no longer considered reliable for the signature!",
		c.Text(msg))

	// key sizes are never grouped by the locale printer
	msg = New(ASCCM_APKSA_ANS, 4096, "RSA", ACCM_POS_CA_CERT)
	assert.Contains(t, c.Text(msg), "4096")
	assert.Contains(t, c.Text(msg), "CA certificate")
}

func TestTimeArguments(t *testing.T) {
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := New(ADEST_BST_INFO, at)
	assert.Equal(t, "The best-signature-time was set to 2020-01-02T03:04:05Z.", msg.String())
}

func TestUnknownTagRendersKey(t *testing.T) {
	assert.Equal(t, "NOT_A_TAG", English().Text(New("NOT_A_TAG")))
	assert.Equal(t, "", English().Text(Message{}))
	assert.False(t, Known("NOT_A_TAG"))
	assert.True(t, Known(BBB_XCV_SUB_ANS))
}

func TestTranslationFallsBackToEnglish(t *testing.T) {
	c, err := NewCatalog(language.French, Translation{
		Language: language.French,
		Texts: map[Tag]string{
			BBB_CV_ISI: "La signature est-elle intacte ?",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, language.French, c.Language())
	assert.Equal(t, "La signature est-elle intacte ?", c.Text(New(BBB_CV_ISI)))
	assert.Equal(t, "The signature is not intact!", c.Text(New(BBB_CV_ISI_ANS)))
}

func TestEveryQuestionHasText(t *testing.T) {
	for _, tag := range []Tag{
		ASCCM_DAA_ANS, ASCCM_EAA_ANS, ASCCM_APKSA_ANS, ASCCM_AR_ANS_ANR, ASCCM_AR_ANS_AKSNR,
		BBB_XCV_SUB_ANS, PSV_IPTVC_ANS, TSV_ASTPTCT, ACCM_POS_SIG_SIG,
	} {
		assert.True(t, Known(tag), "missing text for %s", tag)
	}
}
