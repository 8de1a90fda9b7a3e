// internal/app/system/validators/validators.go
package validators

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	strip    = bluemonday.StrictPolicy()
)

// Bounds carries the configured length limits for channel fields.
type Bounds struct {
	NameMin        int
	NameMax        int
	DescriptionMin int
	DescriptionMax int
}

// DefaultBounds matches the platform-wide limits other services assume.
func DefaultBounds() Bounds {
	return Bounds{NameMin: 2, NameMax: 32, DescriptionMin: 2, DescriptionMax: 128}
}

// Struct validates v against its `validate` tags and translates the first
// failure into a property-invalid user error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return usererrors.PropertyInvalid(fmt.Sprintf("Property %s failed validation (%s)", fe.Field(), fe.Tag()))
}

// SanitizeText strips any markup from free-text input and trims the
// surrounding whitespace. Channel names and descriptions are stored as
// plain text only.
func SanitizeText(s string) string {
	return strings.TrimSpace(strip.Sanitize(s))
}

// CheckName enforces the configured name length after sanitization.
func (b Bounds) CheckName(name string) error {
	if n := len([]rune(name)); n < b.NameMin || n > b.NameMax {
		return usererrors.PropertyInvalid(fmt.Sprintf("Name must be %d to %d characters", b.NameMin, b.NameMax))
	}
	return nil
}

// CheckDescription enforces the configured description length after
// sanitization.
func (b Bounds) CheckDescription(description string) error {
	if n := len([]rune(description)); n < b.DescriptionMin || n > b.DescriptionMax {
		return usererrors.PropertyInvalid(fmt.Sprintf("Description must be %d to %d characters", b.DescriptionMin, b.DescriptionMax))
	}
	return nil
}

// IsValidUser reports whether a user identifier has the address shape the
// authenticator issues (local@domain).
func IsValidUser(user string) bool {
	return validate.Var(user, "required,email") == nil
}
