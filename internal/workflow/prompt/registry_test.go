package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-planner-api/internal/domain/entity"
)

func TestDomainEmphasis_Total(t *testing.T) {
	for _, d := range entity.DreamDomains() {
		s, ok := DomainEmphasis(d)
		assert.True(t, ok, string(d))
		assert.NotEmpty(t, s)
	}
	_, ok := DomainEmphasis("hobby")
	assert.False(t, ok)
}

func TestRegistry_ActionStepsTemplate(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptActionStepsV1)
	require.NoError(t, err)

	again, err := r.ChatTemplate(PromptActionStepsV1)
	require.NoError(t, err)
	assert.Same(t, tpl, again)

	emphasis, _ := DomainEmphasis(entity.DreamDomainStartup)
	msgs, err := tpl.Format(context.Background(), map[string]any{
		"domain":          "startup",
		"domain_emphasis": emphasis,
		"dream":           "I want to build the next Google",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "For startup goals:")
	assert.Contains(t, msgs[0].Content, "user acquisition")
	assert.NotContains(t, msgs[0].Content, "habit formation")
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, `Break down this dream into actionable steps: "I want to build the next Google"`, msgs[1].Content)
}

func TestRegistry_UnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("nope")
	assert.Error(t, err)
}

func TestChatTemplate_DreamTextIsLiteral(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptActionStepsV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"domain":          "personal",
		"domain_emphasis": "x",
		"dream":           "{domain} stays {literal}",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(msgs[1].Content, `"{domain} stays {literal}"`))
}
