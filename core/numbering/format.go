package numbering

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFormat renders e.g. 2026-08/IS/INC/00042.
const DefaultFormat = "{period}/IS/{category}/{seq:05}"

// RegisterFormat renders the day-scoped safety register variant, e.g.
// 26/08/28-3.
const RegisterFormat = "{period}-{seq}"

var seqToken = regexp.MustCompile(`\{seq(?::(\d+))?\}`)

// Render expands a number template for the given scope and counter value.
// Tokens: {period}, {category}, {seq} and zero-padded {seq:N}.
func Render(format string, scope ScopeKey, seq int64) string {
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	out := strings.ReplaceAll(format, "{period}", scope.Period)
	out = strings.ReplaceAll(out, "{category}", scope.Category.Code())
	out = seqToken.ReplaceAllStringFunc(out, func(token string) string {
		m := seqToken.FindStringSubmatch(token)
		if len(m) == 2 && m[1] != "" {
			width := 0
			_, _ = fmt.Sscanf(m[1], "%d", &width)
			if width > 0 {
				return fmt.Sprintf("%0*d", width, seq)
			}
		}
		return fmt.Sprintf("%d", seq)
	})
	return out
}
