package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"

    at, err := NewAccessToken(secret, 42, "EMPLOYEE", 15)
    require.NoError(t, err)
    require.NotEmpty(t, at.Token)
    assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    require.NoError(t, err)
    require.True(t, tok.Valid)

    claims, ok := tok.Claims.(jwt.MapClaims)
    require.True(t, ok)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "EMPLOYEE", claims["role"])
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
    at, err := NewAccessToken("right-secret", 1, "EMPLOYER", 5)
    require.NoError(t, err)

    _, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("wrong-secret"), nil
    })
    assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
    rt, err := NewRefreshToken(30)
    require.NoError(t, err)
    assert.Len(t, rt.Raw, 96) // 48 random bytes hex-encoded
    assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), rt.Exp, 5*time.Second)

    other, err := NewRefreshToken(30)
    require.NoError(t, err)
    assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestHashRefreshRaw(t *testing.T) {
    h1 := HashRefreshRaw("some-token")
    h2 := HashRefreshRaw("some-token")
    h3 := HashRefreshRaw("other-token")

    assert.Equal(t, h1, h2)
    assert.NotEqual(t, h1, h3)
    assert.Len(t, h1, 64) // SHA-256 hex
    assert.NotContains(t, h1, "some-token")
}

func TestPasswordHashing(t *testing.T) {
    hash, err := HashPassword("hunter2-hunter2", 4)
    require.NoError(t, err)
    assert.NotEqual(t, "hunter2-hunter2", hash)

    assert.True(t, VerifyPassword(hash, "hunter2-hunter2"))
    assert.False(t, VerifyPassword(hash, "wrong-password"))
}
