package runtime

import (
	"strings"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/regex"
)

// render produces the reply text of a state: substitution, placeholder cleanup, trim.
func (e *Engine) render(st domain.State) string {
	return strings.TrimSpace(regex.Clear(e.substitute(st.Prompt())))
}

func replaceAll(text, placeholder, value string) string {
	if !strings.Contains(text, placeholder) {
		return text
	}
	return strings.ReplaceAll(text, placeholder, value)
}
