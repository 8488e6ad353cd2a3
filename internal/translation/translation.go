// Package translation defines the contract for producing the back side
// of a draft card from its front text.
package translation

import (
	"context"
	"errors"
)

// ErrTranslationFailed is returned when the translation backend could
// not produce a usable result.
var ErrTranslationFailed = errors.New("translation failed")

// Translator turns a word or phrase into its translation. The sentence
// argument is optional surrounding context that helps disambiguate; it
// may be empty.
type Translator interface {
	Translate(ctx context.Context, text, sentence string) (string, error)
}
