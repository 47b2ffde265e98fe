package budget

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int{
		"":                       0,
		"a":                      1,
		"abcd":                   1,
		"abcdefgh":               2,
		strings.Repeat("x", 400): 100,
	} {
		assert.Equal(t, want, Estimate(in), "Estimate(%d chars)", len(in))
	}
}

func TestEstimateMessagesAndFits(t *testing.T) {
	t.Parallel()

	// Per message: 4 overhead + 1 for "user" + 2 for the 11-char content.
	msgs := []*schema.Message{schema.UserMessage("hello world"), schema.UserMessage("hello world")}
	assert.Equal(t, 14, EstimateMessages(msgs))
	assert.True(t, Fits(msgs, 14))
	assert.False(t, Fits(msgs, 13))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	evidence := "Build chart: 5'10\" max 225 lb for Preferred."
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{evidence, 200, evidence},
		{evidence, 11, "Build chart"},
		{evidence, 0, evidence},
		{"ééééé", 3, "ééé"},
		{"abcd", 4, "abcd"},
	}
	for _, tc := range cases {
		got := Truncate(tc.in, tc.max)
		assert.Equal(t, tc.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}
