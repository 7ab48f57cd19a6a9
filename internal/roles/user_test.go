package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/config"
)

func TestNormalizeSiteURL(t *testing.T) {
	cases := map[string]string{
		"tutor-qa.openstax.org":          "https://tutor-qa.openstax.org",
		"http://tutor-qa.openstax.org":   "https://tutor-qa.openstax.org",
		"https://tutor-qa.openstax.org/": "https://tutor-qa.openstax.org",
		"https://tutor-qa.openstax.org":  "https://tutor-qa.openstax.org",
	}
	for input, want := range cases {
		got, err := NormalizeSiteURL(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, err := NormalizeSiteURL("")
	assert.Error(t, err)
}

func TestNewUserNormalizesSite(t *testing.T) {
	user, err := NewUser(nil, config.Credentials{Username: "u"}, "tutor-dev.openstax.org", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "https://tutor-dev.openstax.org", user.BaseURL())
	assert.Equal(t, "u", user.Username())
}

func TestDateString(t *testing.T) {
	today := DateString(0)
	parsed, err := time.Parse("01/02/2006", today)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Year(), parsed.Year())

	tomorrow := DateString(1)
	next, err := time.Parse("01/02/2006", tomorrow)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, next.Sub(parsed))
}

func TestNewAdminBase(t *testing.T) {
	admin, err := NewAdmin(nil, config.Credentials{}, "tutor-qa.openstax.org", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "https://tutor-qa.openstax.org/admin", admin.base)
}
