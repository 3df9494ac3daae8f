package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenOTPCodeFormat(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := GenOTPCode(4)
		require.NoError(t, err)
		require.Len(t, code, 4)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "unexpected rune %q in %q", r, code)
		}
	}
}

func TestGenOTPCodeLengths(t *testing.T) {
	for _, n := range []int{1, 4, 6, 8} {
		code, err := GenOTPCode(n)
		require.NoError(t, err)
		require.Len(t, code, n)
	}
}

func TestGenOTPCodeUniformDigits(t *testing.T) {
	const samples = 10000

	counts := make(map[rune]int)
	for i := 0; i < samples; i++ {
		code, err := GenOTPCode(4)
		require.NoError(t, err)
		for _, r := range code {
			counts[r]++
		}
	}

	// 40000 digits, expected 4000 per value, stddev ~60. A window of
	// +-10% is far beyond 5 sigma, so a biased generator fails reliably
	// while a fair one passes.
	total := samples * 4
	expected := total / 10
	for d := '0'; d <= '9'; d++ {
		c := counts[d]
		require.InDelta(t, expected, c, float64(expected)/10,
			"digit %q occurred %d times, expected about %d", d, c, expected)
	}
}
