package models

// Reason explains why the gate rejected an operation.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonMalformedInput means the candidate was not exactly 4 decimal digits.
	ReasonMalformedInput
	// ReasonWrongPin means the checksum did not match and no lockout was scheduled.
	ReasonWrongPin
	// ReasonSamePin means a credential change asked for the PIN already in use.
	ReasonSamePin
	// ReasonLockedOut means a lockout window is active.
	ReasonLockedOut
	// ReasonStorageError means the key-value store could not be read or written.
	ReasonStorageError
)

// String returns the wire name of the reason
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformedInput:
		return "malformed_input"
	case ReasonWrongPin:
		return "wrong_pin"
	case ReasonSamePin:
		return "same_pin"
	case ReasonLockedOut:
		return "locked_out"
	case ReasonStorageError:
		return "storage_error"
	default:
		return "unknown"
	}
}

// MarshalText lets reasons render as their wire names in JSON
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome is the explicit result of a gate operation. Callers branch on
// Accepted and Reason; no gate operation reports user-facing failures as a
// Go error.
type Outcome struct {
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason"`

	// LockoutSeconds is the remaining (or newly scheduled) lockout when
	// Reason is ReasonLockedOut.
	LockoutSeconds int `json:"lockout_seconds,omitempty"`

	// LockoutScheduled is true when this rejection started the lockout.
	LockoutScheduled bool `json:"lockout_scheduled,omitempty"`

	// AttemptsUntilLockout is set when Reason is ReasonWrongPin.
	AttemptsUntilLockout int `json:"attempts_until_lockout"`

	// Err carries the underlying cause for ReasonStorageError.
	Err error `json:"-"`
}

// Accept returns an accepting outcome
func Accept() Outcome {
	return Outcome{Accepted: true}
}

// Reject returns a rejecting outcome with the given reason
func Reject(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// RejectWrongPin returns a wrong-PIN outcome
func RejectWrongPin(attemptsUntilLockout int) Outcome {
	return Outcome{Reason: ReasonWrongPin, AttemptsUntilLockout: attemptsUntilLockout}
}

// RejectLockedOut returns a lockout outcome carrying the seconds to wait
func RejectLockedOut(seconds int) Outcome {
	return Outcome{Reason: ReasonLockedOut, LockoutSeconds: seconds}
}

// RejectLockoutScheduled returns the outcome of the wrong attempt that
// started a lockout
func RejectLockoutScheduled(seconds int) Outcome {
	return Outcome{Reason: ReasonLockedOut, LockoutSeconds: seconds, LockoutScheduled: true}
}

// RejectStorage returns a storage failure outcome
func RejectStorage(err error) Outcome {
	return Outcome{Reason: ReasonStorageError, Err: err}
}
