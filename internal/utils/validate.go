package utils

import (
    "fmt"
    "strings"

    "github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator.  Custom registrations, if
// ever needed, must happen before the first call to ValidateStruct.
var v = validator.New()

// ValidateStruct validates the given struct using its validate tags and
// returns a single human-readable error listing every failed field, or
// nil when the struct is valid.
func ValidateStruct(s interface{}) error {
    if err := v.Struct(s); err != nil {
        ve, ok := err.(validator.ValidationErrors)
        if !ok {
            return err
        }
        var msgs []string
        for _, fe := range ve {
            msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
        }
        return fmt.Errorf("%s", strings.Join(msgs, "; "))
    }
    return nil
}
