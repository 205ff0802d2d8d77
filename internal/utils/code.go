package utils // generators for verification codes and public identifiers

import (
    "crypto/rand"
    "math/big"
    "regexp"
    "strings"
)

// codeAlphabet is the character set used inside verification code
// segments and public employee IDs: uppercase letters and digits.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codePattern matches the fixed external layout of a verification code:
// the SL prefix followed by three 4-character segments.
var codePattern = regexp.MustCompile(`^SL-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// randomFrom returns n characters drawn uniformly from the given alphabet
// using crypto/rand.  It is the building block for every generated
// identifier in this package.
func randomFrom(alphabet string, n int) (string, error) {
    max := big.NewInt(int64(len(alphabet)))
    b := make([]byte, n)
    for i := range b {
        idx, err := rand.Int(rand.Reader, max)
        if err != nil {
            return "", err
        }
        b[i] = alphabet[idx.Int64()]
    }
    return string(b), nil
}

// NewVerificationCode generates a candidate code string in the format
// SL-XXXX-XXXX-XXXX.  The result is random, not guaranteed unique; the
// repository layer confirms uniqueness against the store's unique index
// and retries on collision.
func NewVerificationCode() (string, error) {
    segs := make([]string, 3)
    for i := range segs {
        s, err := randomFrom(codeAlphabet, 4)
        if err != nil {
            return "", err
        }
        segs[i] = s
    }
    return "SL-" + strings.Join(segs, "-"), nil
}

// ValidCodeFormat reports whether a string matches the verification code
// layout.  The redemption engine uses this to skip the store lookup for
// input that can never match a stored code.
func ValidCodeFormat(code string) bool {
    return codePattern.MatchString(code)
}

// NewPublicID generates a candidate 6-character public employee ID.  The
// first character is always a letter so the ID never starts with a digit
// (e.g. Z2DU79).  Uniqueness is enforced by the caller against the store.
func NewPublicID() (string, error) {
    first, err := randomFrom(codeAlphabet[:26], 1)
    if err != nil {
        return "", err
    }
    rest, err := randomFrom(codeAlphabet, 5)
    if err != nil {
        return "", err
    }
    return first + rest, nil
}

// NewEmployerID generates a candidate numeric employer ID in the range
// 100000–999999.  Uniqueness is enforced by the caller against the store.
func NewEmployerID() (uint64, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(900000))
    if err != nil {
        return 0, err
    }
    return uint64(n.Int64()) + 100000, nil
}

// CompanyHandle derives a public handle from a company name: lowercase
// alphanumerics only, truncated to 20 characters, with a numeric suffix
// appended when attempt > 0.  Callers bump attempt until the store
// accepts the handle as unique.
func CompanyHandle(companyName string, attempt int) string {
    var b strings.Builder
    for _, r := range strings.ToLower(companyName) {
        if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
            b.WriteRune(r)
        }
    }
    handle := b.String()
    if len(handle) > 20 {
        handle = handle[:20]
    }
    if handle == "" {
        handle = "company"
    }
    if attempt > 0 {
        handle += big.NewInt(int64(attempt)).String()
    }
    return handle
}
