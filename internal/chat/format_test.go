package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatReply(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"plain", "Drink water.", "<p>Drink water.</p>"},
		{"emphasis", "**Rest** and *hydrate*", "<p><strong>Rest</strong> and <em>hydrate</em></p>"},
		{"bold italic", "***Important***", "<p><strong><em>Important</em></strong></p>"},
		{"underscore", "take it _slowly_ now", "<p>take it <em>slowly</em> now</p>"},
		{"snake case untouched", "see vitamin_d_levels", "<p>see vitamin_d_levels</p>"},
		{"code", "run `ls`", `<p>run <code class="inline-code">ls</code></p>`},
		{"adjacent underscores", "_a_ _b_", "<p><em>a</em> <em>b</em></p>"},
		{"no emphasis in code", "use `**x**` here", `<p>use <code class="inline-code">**x**</code> here</p>`},
		{"underscores in code", "call `_init_` first", `<p>call <code class="inline-code">_init_</code> first</p>`},
		{"emphasis around code", "**run `ls`**", `<p><strong>run <code class="inline-code">ls</code></strong></p>`},
		{"stray nul dropped", "a\x00b", "<p>ab</p>"},
		{"line break", "one\ntwo", "<p>one<br>two</p>"},
		{
			"numbered list between paragraphs",
			"Try this:\n\n1. Sleep\n2. Eat **well**\n\nSee a doctor.",
			`<p>Try this:</p><ol class="ai-numbered-list"><li>Sleep</li><li>Eat <strong>well</strong></li></ol><p>See a doctor.</p>`,
		},
		{
			"bullets directly after text",
			"Symptoms:\n- fever\n* cough",
			`<p>Symptoms:</p><ul class="ai-bullet-list"><li>fever</li><li>cough</li></ul>`,
		},
		{
			"list kind switch",
			"1. a\n- b",
			`<ol class="ai-numbered-list"><li>a</li></ol><ul class="ai-bullet-list"><li>b</li></ul>`,
		},
		{"escapes markup", "<script>alert(1)</script>", "<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatReply(tc.in))
		})
	}
}
