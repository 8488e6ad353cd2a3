package gemini

import (
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromptOnlyTranslator(t *testing.T) *Translator {
	t.Helper()
	return &Translator{
		tmpl: template.Must(template.New("translate").Parse(promptTemplate)),
	}
}

func TestBuildPromptWithSentence(t *testing.T) {
	tr := newPromptOnlyTranslator(t)

	prompt, err := tr.buildPrompt("banco", "me senté en el banco")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Word or phrase: banco")
	assert.Contains(t, prompt, "me senté en el banco")
}

func TestBuildPromptWithoutSentence(t *testing.T) {
	tr := newPromptOnlyTranslator(t)

	prompt, err := tr.buildPrompt("hola", "")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Word or phrase: hola")
	assert.NotContains(t, prompt, "It appeared in this sentence")
}
