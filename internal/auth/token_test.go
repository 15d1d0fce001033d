package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_SignAndVerify(t *testing.T) {
	v := NewVerifier("secret", "issuer-1", "app")
	id := Identity{Subject: "firebase-uid", Email: "a@example.com", Name: "Alice"}

	token, err := v.Sign(id, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("secret", "issuer-1", "app")
	id := Identity{Subject: "uid"}

	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Sign(id, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherKey, err := NewVerifier("other", "issuer-1", "app").Sign(id, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(otherKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewVerifier("secret", "issuer-2", "app").Sign(id, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.Sign(Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_OptionalIssuerAndAudience(t *testing.T) {
	token, err := NewVerifier("secret", "anything", "whatever").Sign(Identity{Subject: "uid"}, time.Hour)
	require.NoError(t, err)

	got, err := NewVerifier("secret", "", "").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uid", got.Subject)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}
