package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func TestVerificationCodeRoundTrip(t *testing.T) {
	code, err := VerificationCode(testSecret)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	valid, err := ValidateCode(code, testSecret)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerificationCodeNormalizesSecret(t *testing.T) {
	// Secrets are often copied with spaces and lowercase letters.
	code, err := VerificationCode("jbsw y3dp ehpk 3pxp")
	require.NoError(t, err)

	valid, err := ValidateCode(code, testSecret)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerificationCodeRequiresSecret(t *testing.T) {
	_, err := VerificationCode("")
	assert.Error(t, err)
}

func TestValidateCodeRejectsWrongCode(t *testing.T) {
	valid, err := ValidateCode("000000", testSecret)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateCodeRequiresInputs(t *testing.T) {
	_, err := ValidateCode("123456", "")
	assert.Error(t, err)
	_, err = ValidateCode("", testSecret)
	assert.Error(t, err)
}
