package plugin

import (
	"path/filepath"
	"regexp"
)

const maxMessageLength = 512

var (
	credentialPattern = regexp.MustCompile(`(?i)[\w-]*(?:password|passwd|secret|token|api[_-]?key)(?:[_-]\w+)?\s*[=:]\s*("[^"]*"|'[^']*'|\S+)`)
	unixPathPattern   = regexp.MustCompile(`(^|[\s"'(=:\[])(/[^\s"'),;:\]]+)`)
	windowsPath       = regexp.MustCompile(`(?i)\b[a-z]:\\[^\s"'),;\]]*`)
)

// sanitizeMessage makes an error message safe to hand back to callers:
// the plugin's own data root is shown as a relative path, other absolute
// paths and credential assignments are redacted, and the length is bounded.
func sanitizeMessage(msg, dataRoot string) string {
	if dataRoot != "" {
		msg = relativizeRoot(msg, dataRoot)
	}
	msg = credentialPattern.ReplaceAllString(msg, "<redacted>")
	msg = windowsPath.ReplaceAllString(msg, "<path>")
	msg = unixPathPattern.ReplaceAllString(msg, "${1}<path>")
	if len(msg) > maxMessageLength {
		cut := maxMessageLength
		for cut > 0 && !isRuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

// relativizeRoot rewrites occurrences of dataRoot that end at a path
// boundary. A sibling such as "<root>-other/x" is left for the absolute
// path redactor.
func relativizeRoot(msg, dataRoot string) string {
	sep := string(filepath.Separator)
	re := regexp.MustCompile(regexp.QuoteMeta(dataRoot) + `(` + regexp.QuoteMeta(sep) + `|$|[\s"'),;:\]])`)
	return re.ReplaceAllStringFunc(msg, func(m string) string {
		rest := m[len(dataRoot):]
		if rest == sep {
			return ""
		}
		return "." + rest
	})
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
