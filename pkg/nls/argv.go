package nls

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// DefaultLocale is used whenever no locale can be determined.
const DefaultLocale = "en"

// LocaleFromArgv reads the "locale" key of an argv.json file. The file may
// carry // and /* */ comments. A missing file yields DefaultLocale with no
// error; any other failure yields DefaultLocale and the error for logging.
func LocaleFromArgv(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultLocale, nil
		}
		return DefaultLocale, err
	}

	var argv struct {
		Locale string `json:"locale"`
	}
	if err := json.Unmarshal([]byte(StripComments(string(data))), &argv); err != nil {
		return DefaultLocale, err
	}
	if strings.TrimSpace(argv.Locale) == "" {
		return DefaultLocale, nil
	}
	return argv.Locale, nil
}

// StripComments removes line and block comments outside string literals.
// A line comment's terminating newline is kept.
func StripComments(content string) string {
	var sb strings.Builder
	sb.Grow(len(content))

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == '"' || c == '\'':
			end := scanString(content, i)
			sb.WriteString(content[i:end])
			i = end
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			i += 2 + end + 2
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			end := strings.IndexByte(content[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end
			if i > 0 && content[i-1] == '\r' {
				sb.WriteByte('\r')
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// scanString returns the index just past the string literal starting at i.
func scanString(content string, i int) int {
	quote := content[i]
	for j := i + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(content)
}
