package utils

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewVerificationCodeFormat(t *testing.T) {
    for i := 0; i < 100; i++ {
        code, err := NewVerificationCode()
        require.NoError(t, err)
        assert.True(t, ValidCodeFormat(code), "generated code %q must match the layout", code)
    }
}

func TestValidCodeFormat(t *testing.T) {
    cases := []struct {
        code string
        ok   bool
    }{
        {"SL-ABCD-1234-WXYZ", true},
        {"SL-0000-0000-0000", true},
        {"sl-abcd-1234-wxyz", false}, // lowercase rejected
        {"SL-ABC-1234-WXYZ", false},  // short segment
        {"SL-ABCD-1234-WXYZ1", false},
        {"XX-ABCD-1234-WXYZ", false},
        {"SLABCD1234WXYZ", false},
        {"", false},
        {" SL-ABCD-1234-WXYZ", false},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.ok, ValidCodeFormat(tc.code), "code %q", tc.code)
    }
}

func TestNewVerificationCodeVariety(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 50; i++ {
        code, err := NewVerificationCode()
        require.NoError(t, err)
        seen[code] = true
    }
    // With 36^12 possibilities, 50 draws colliding would mean a broken
    // generator.
    assert.Equal(t, 50, len(seen))
}

func TestNewPublicID(t *testing.T) {
    for i := 0; i < 100; i++ {
        id, err := NewPublicID()
        require.NoError(t, err)
        require.Len(t, id, 6)
        first := id[0]
        assert.True(t, first >= 'A' && first <= 'Z', "public ID %q must start with a letter", id)
        for _, ch := range id {
            assert.True(t, strings.ContainsRune(codeAlphabet, ch), "public ID %q has invalid char %q", id, ch)
        }
    }
}

func TestNewEmployerIDRange(t *testing.T) {
    for i := 0; i < 100; i++ {
        id, err := NewEmployerID()
        require.NoError(t, err)
        assert.GreaterOrEqual(t, id, uint64(100000))
        assert.LessOrEqual(t, id, uint64(999999))
    }
}

func TestCompanyHandle(t *testing.T) {
    assert.Equal(t, "acmecorp", CompanyHandle("Acme Corp", 0))
    assert.Equal(t, "acmecorp1", CompanyHandle("Acme Corp", 1))
    assert.Equal(t, "acmecorp2", CompanyHandle("Acme Corp!", 2))

    long := CompanyHandle(strings.Repeat("Verylongcompanyname", 3), 0)
    assert.LessOrEqual(t, len(long), 20)

    // A name with no usable characters still yields a handle.
    assert.NotEmpty(t, CompanyHandle("!!!", 0))
}
