package gate

import "time"

// PINLength is the number of digits in a PIN
const PINLength = 4

// LockoutThreshold is the number of wrong attempts tolerated before the
// first lockout
const LockoutThreshold = 3

// lockoutSeconds maps the cumulative wrong-attempt count to a lockout
// duration. Entry i applies to attempt i+1; counts past the end reuse the
// last entry.
var lockoutSeconds = [...]int{0, 0, 0, 15, 30, 60, 120}

// LockoutDuration returns the lockout scheduled after the given cumulative
// wrong-attempt count
func LockoutDuration(attempts int) time.Duration {
	if attempts < 1 {
		return 0
	}
	idx := attempts - 1
	if idx >= len(lockoutSeconds) {
		idx = len(lockoutSeconds) - 1
	}
	return time.Duration(lockoutSeconds[idx]) * time.Second
}

// AttemptsUntilLockout returns how many more wrong attempts are tolerated
func AttemptsUntilLockout(attempts int) int {
	if left := LockoutThreshold - attempts; left > 0 {
		return left
	}
	return 0
}

// remainingSeconds rounds the time left until deadline up to whole seconds
func remainingSeconds(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
