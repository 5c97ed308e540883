package logger

import "strings"

const redactedValue = "[REDACTED]"

// sensitiveKeywords mark field keys whose string values never reach the log
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "credential", "dsn", "authorization",
}

// IsSensitiveKey reports whether a field key indicates a credential
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
