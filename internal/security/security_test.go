package security

import (
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	ts := NewTokenService("secret", "chatcore", time.Hour)

	tok, exp, err := ts.Issue(42)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, err := ts.Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenService_RejectsExpiredAndForeign(t *testing.T) {
	ts := NewTokenService("secret", "chatcore", time.Hour)

	expired, _, err := ts.IssueWithTTL(1, -time.Minute)
	require.NoError(t, err)
	_, err = ts.Subject(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenService("other-secret", "chatcore", time.Hour)
	foreign, _, err := other.Issue(1)
	require.NoError(t, err)
	_, err = ts.Subject(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ts.Subject("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hashed, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.NoError(t, h.Verify("hunter2", hashed))
	assert.ErrorIs(t, h.Verify("wrong", hashed), ErrPasswordMismatch)

	_, err = h.Hash("")
	assert.Error(t, err)
}

func TestEncryptor_RoundTrip(t *testing.T) {
	e, err := NewEncryptor([]byte("any length secret"), nil)
	require.NoError(t, err)

	enc, err := e.Encrypt("hello")
	require.NoError(t, err)
	assert.NotEqual(t, "hello", enc)

	plain, err := e.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)

	_, err = e.Decrypt("garbage")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestEncryptor_ReadsLegacyFernet(t *testing.T) {
	var k fernet.Key
	require.NoError(t, k.Generate())

	tok, err := fernet.EncryptAndSign([]byte("old message"), &k)
	require.NoError(t, err)

	e, err := NewEncryptor([]byte("new secret"), []string{k.Encode()})
	require.NoError(t, err)

	plain, err := e.Decrypt(string(tok))
	require.NoError(t, err)
	assert.Equal(t, "old message", plain)
}

func TestNewEncryptor_EmptyKey(t *testing.T) {
	_, err := NewEncryptor(nil, nil)
	assert.Error(t, err)
}
