package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// surveyIDRegex matches store ids: letters, digits, dash and underscore.
var surveyIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateSurveyID validates a stored survey id. Ids become file names in
// the file store and document keys in Mongo, so anything that could
// traverse a path is rejected.
func ValidateSurveyID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "survey id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidID, "survey id too long (max 128 characters)")
	}
	if !surveyIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid survey id: %q", id)
	}
	return nil
}

// ValidateElementID validates a panel or breaker id taken from a URL.
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidID, "id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return New(ErrCodeInvalidID, "id contains invalid characters")
		}
	}
	return nil
}

// ValidateFormat reports an INVALID_FORMAT error unless format is one of
// allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
