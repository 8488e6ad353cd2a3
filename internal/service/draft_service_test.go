package service

import (
	"context"
	"testing"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranslator struct {
	result string
	err    error

	gotText     string
	gotSentence string
}

func (s *stubTranslator) Translate(ctx context.Context, text, sentence string) (string, error) {
	s.gotText = text
	s.gotSentence = sentence
	return s.result, s.err
}

func TestCreateDraftEnqueuesTranslatedCard(t *testing.T) {
	cards, _ := newTestService(t)
	tr := &stubTranslator{result: "hello"}
	drafts, err := NewDraftService(cards, tr, nil)
	require.NoError(t, err)

	card, err := drafts.CreateDraft(context.Background(), "  hola ", "hola amigo")
	require.NoError(t, err)

	assert.Equal(t, "hola", card.Front)
	assert.Equal(t, "hello", card.Back)
	assert.Equal(t, "hola amigo", card.Sentence)
	assert.Equal(t, domain.StatusPending, card.Status)
	assert.Equal(t, "hola", tr.gotText)
	assert.Equal(t, "hola amigo", tr.gotSentence)
}

func TestCreateDraftRejectsEmptyFront(t *testing.T) {
	cards, _ := newTestService(t)
	drafts, err := NewDraftService(cards, &stubTranslator{result: "x"}, nil)
	require.NoError(t, err)

	_, err = drafts.CreateDraft(context.Background(), "   ", "")
	assert.ErrorIs(t, err, domain.ErrCardFrontEmpty)
}

func TestCreateDraftTranslatorFailure(t *testing.T) {
	cards, memStore := newTestService(t)
	drafts, err := NewDraftService(cards, &stubTranslator{err: translation.ErrTranslationFailed}, nil)
	require.NoError(t, err)

	_, err = drafts.CreateDraft(context.Background(), "hola", "")
	assert.ErrorIs(t, err, translation.ErrTranslationFailed)

	// Nothing was enqueued for the failed draft.
	pending, listErr := memStore.ListPending(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, pending)
}

func TestCreateDraftEmptyTranslation(t *testing.T) {
	cards, _ := newTestService(t)
	drafts, err := NewDraftService(cards, &stubTranslator{result: "   "}, nil)
	require.NoError(t, err)

	_, err = drafts.CreateDraft(context.Background(), "hola", "")
	assert.ErrorIs(t, err, translation.ErrTranslationFailed)
}
