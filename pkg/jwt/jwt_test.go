package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "clave-de-prueba"

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	in := Identity{UserID: "u-1", Role: "administrador", SuperAdmin: true, SessionID: "s-9"}

	tok, err := Generate(secret, "concesionaria-test", 5, in)
	require.NoError(t, err)

	out, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate(secret, "x", 5, Identity{UserID: "u-1", Role: "vendedor"})
	require.NoError(t, err)

	_, err = Parse("otra-clave", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := Generate(secret, "x", -1, Identity{UserID: "u-1", Role: "vendedor"})
	require.NoError(t, err)

	_, err = Parse(secret, tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestGenerate_SinSecretoOUsuario(t *testing.T) {
	_, err := Generate("", "x", 5, Identity{UserID: "u-1"})
	assert.Error(t, err)

	_, err = Generate(secret, "x", 5, Identity{})
	assert.Error(t, err)
}
