package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"0", "48"},
		{"1234", "1509442"},
		{"0000", "1477632"},
		{"9999", "1754688"},
		{"5678", "1632578"},
		{"\U0001F600", "1772899"}, // surrogate pair
		{"the quick brown fox jumps over the lazy dog", "-2082818701"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.in))
		})
	}
}

func TestValidPIN(t *testing.T) {
	valid := []string{"0000", "1234", "9999"}
	invalid := []string{"", "123", "12345", "12a4", " 123", "１２３４", "-123"}

	for _, s := range valid {
		assert.True(t, ValidPIN(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidPIN(s), s)
	}
}

func TestLockoutDuration(t *testing.T) {
	want := []int{0, 0, 0, 15, 30, 60, 120, 120, 120, 120}
	for i, secs := range want {
		assert.Equal(t, time.Duration(secs)*time.Second, LockoutDuration(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, time.Duration(0), LockoutDuration(0))
	assert.Equal(t, 120*time.Second, LockoutDuration(1000))
}

func TestAttemptsUntilLockout(t *testing.T) {
	assert.Equal(t, 3, AttemptsUntilLockout(0))
	assert.Equal(t, 2, AttemptsUntilLockout(1))
	assert.Equal(t, 1, AttemptsUntilLockout(2))
	assert.Equal(t, 0, AttemptsUntilLockout(3))
	assert.Equal(t, 0, AttemptsUntilLockout(9))
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.Equal(t, 0, remainingSeconds(now, now))
	assert.Equal(t, 0, remainingSeconds(now.Add(-time.Second), now))
	assert.Equal(t, 1, remainingSeconds(now.Add(time.Millisecond), now))
	assert.Equal(t, 15, remainingSeconds(now.Add(15*time.Second), now))
	assert.Equal(t, 15, remainingSeconds(now.Add(14500*time.Millisecond), now))
}
