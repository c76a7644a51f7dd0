package cryptox

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	key1 := DeriveKey([]byte("secret-password"), []byte("fixed-salt"))
	key2 := DeriveKey([]byte("secret-password"), []byte("fixed-salt"))
	require.True(t, bytes.Equal(key1, key2))
	assert.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", hex.EncodeToString(key1))

	other := DeriveKey([]byte("secret-password"), []byte("salt-2"))
	assert.NotEqual(t, key1, other)
}

func TestSealOpen(t *testing.T) {
	plain := []byte(`{"version":"1.0","templates":[]}`)

	sealed, err := Seal("correct horse", plain)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.False(t, IsSealed(plain))
	assert.NotContains(t, string(sealed), "templates")

	got, err := Open("correct horse", sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	again, err := Seal("correct horse", plain)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "fresh salt and nonce every time")
}

func TestOpen_Errors(t *testing.T) {
	sealed, err := Seal("pw", []byte("payload"))
	require.NoError(t, err)

	_, err = Open("wrong", sealed)
	require.ErrorIs(t, err, ErrWrongPassword)

	_, err = Open("", sealed)
	require.ErrorIs(t, err, ErrNoPassphrase)

	_, err = Open("pw", []byte(`{"version":"1.0"}`))
	require.ErrorIs(t, err, ErrNotSealed)

	var env Envelope
	require.NoError(t, json.Unmarshal(sealed, &env))
	env.Data[0] ^= 0xff
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = Open("pw", tampered)
	require.ErrorIs(t, err, ErrWrongPassword)

	env.Version = 2
	future, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = Open("pw", future)
	require.ErrorContains(t, err, "version 2")

	_, err = Seal("", []byte("x"))
	require.ErrorIs(t, err, ErrNoPassphrase)
}
