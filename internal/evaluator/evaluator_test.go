package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	ev, err := New()
	require.NoError(t, err)

	cases := []struct {
		in   string
		want float64
	}{
		{"3*4", 12},
		{"2+2", 4},
		{"1/2", 0.5},
		{"10/3", 3.33},
		{"2/3", 0.67},
		{"(1+2)*3", 9},
		{"-5 + 2", -3},
		{"0.1+0.2", 0.3},
		{"  7 - 10  ", -3},
		{"-0.001", 0},
		{"1e3/4", 250},
		{"1e307", 1e307},
		{"1e306*5", 5e306},
		{"10 % 3", 1},
		{"10.5 % 3", 1.5},
		{"-7 % 2", -1},
		{"pow(2, 3)", 8},
		{"pow(2, 0.5)", 1.41},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ev.Evaluate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateRejects(t *testing.T) {
	ev, err := New()
	require.NoError(t, err)

	for _, in := range []string{
		"",
		"   ",
		"1/0",
		"5 % 0",
		"2^3",
		"pow(2)",
		"2+",
		"abc",
		"1 < 2",
		"'text'",
		"3 +* 4",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ev.Evaluate(in)
			require.ErrorIs(t, err, ErrEvaluation)
		})
	}
}

func TestRound2NormalisesNegativeZero(t *testing.T) {
	r := Round2(-0.004)
	assert.Equal(t, 0.0, r)
	assert.False(t, r < 0 || 1/r < 0, "negative zero leaked")
	assert.Equal(t, 2.35, Round2(2.345000001))
	assert.Equal(t, -2.5, Round2(-2.499))
	assert.Equal(t, 1e300, Round2(1e300))
	assert.Equal(t, -float64(1<<53), Round2(-float64(1<<53)))
}

func TestPromoteIntLiterals(t *testing.T) {
	cases := map[string]string{
		"1/2":         "1.0/2.0",
		"1.5+2":       "1.5+2.0",
		"1e3":         "1e3",
		"0x1F+1":      "0x1F+1.0",
		"3u":          "3u",
		"x1 + 2":      "x1 + 2.0",
		"'12' + \"3\"": "'12' + \"3\"",
		"(10)*(2)":    "(10.0)*(2.0)",
	}
	for in, want := range cases {
		assert.Equal(t, want, promoteIntLiterals(in), in)
	}
}
