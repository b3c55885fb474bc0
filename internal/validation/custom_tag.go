package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var displayNameRegex = regexp.MustCompile(`^[\p{L}\p{N} _.-]{1,32}$`)

func init() {
	MustRegisterGin("displayname", ValidateDisplayName)
	MustRegisterGinAlias("userid", "uuid4")
	MustRegisterGinAlias("signalkind", "oneof=offer answer ice")
}

// ValidateDisplayName validates display names: 1-32 visible characters,
// letters/digits/spaces and a few separators, no leading/trailing whitespace.
func ValidateDisplayName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) != s {
		return false
	}
	return displayNameRegex.MatchString(s)
}
