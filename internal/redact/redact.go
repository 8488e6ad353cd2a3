// Package redact strips sensitive values from strings before they are
// logged. The queue server handles a shared secret and a database
// connection string; neither may leak through error messages.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings with inline credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// Secrets and API keys appearing in key=value or key: value form
	secretRegex = regexp.MustCompile(
		`(?i)(api[_-]?secret|api[_-]?key|secret|token|password)(['"\s:=]+)[^'"&\s]{3,}`,
	)
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := dbConnRegex.ReplaceAllString(input, RedactedCredentialPlaceholder+"@")
	result = secretRegex.ReplaceAllString(result, "$1$2"+RedactedKeyPlaceholder)
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
