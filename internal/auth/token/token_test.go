package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret")

	raw, err := issuer.Issue("EMP1", "manager", "U100", time.Now())
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "EMP1", claims.Subject)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "U100", claims.UserID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewIssuer("secret-a").Issue("EMP1", "operator", "U1", time.Now())
	require.NoError(t, err)

	_, err = NewIssuer("secret-b").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret")

	raw, err := issuer.Issue("EMP1", "operator", "U1", time.Now().Add(-2*TTL))
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
