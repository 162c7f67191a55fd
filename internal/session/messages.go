package session

import "fmt"

// MessageKind styles a status message
type MessageKind string

const (
	KindNone    MessageKind = ""
	KindError   MessageKind = "error"
	KindLockout MessageKind = "lockout"
	KindSuccess MessageKind = "success"
	KindWarning MessageKind = "warning"
)

// Message is the status line shown under the PIN dots
type Message struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}

// Teardown reasons recorded in the audit log
const (
	ReasonLogout      = "logout"
	ReasonCancel      = "cancel"
	ReasonVisibility  = "visibility"
	ReasonViolations  = "violations"
	ReasonLockedEntry = "locked_entry"
	ReasonEnded       = "ended"
)

var securityWarnings = []string{
	"⚠️ Screenshot attempt detected!",
	"⚠️ Security warning!",
	"⚠️ Unauthorized capture attempt!",
}

func promptMessage() Message {
	return Message{Text: "Enter 4-digit PIN to access vault"}
}

func accountLockedMessage(secs int) Message {
	return Message{Text: fmt.Sprintf("Account locked! Wait %d seconds.", secs), Kind: KindLockout}
}

func lockoutScheduledMessage(secs int) Message {
	return Message{Text: fmt.Sprintf("Too many wrong attempts! Locked for %d seconds.", secs), Kind: KindLockout}
}

func stillLockedMessage(secs int) Message {
	return Message{Text: fmt.Sprintf("Still locked for %d seconds...", secs), Kind: KindLockout}
}

func countdownMessage(secs int) Message {
	return Message{Text: fmt.Sprintf("Locked for %d more seconds...", secs), Kind: KindLockout}
}

func lockoutOverMessage() Message {
	return Message{Text: "Lockout over. You may try again."}
}

func wrongPinMessage(attemptsLeft int) Message {
	if attemptsLeft > 0 {
		return Message{Text: fmt.Sprintf("Wrong PIN! %d attempt(s) left before lockout.", attemptsLeft), Kind: KindError}
	}
	return Message{Text: "Wrong PIN! Next wrong attempt will trigger lockout.", Kind: KindError}
}

func accessGrantedMessage() Message {
	return Message{Text: "Access granted!", Kind: KindSuccess}
}

func storageErrorMessage() Message {
	return Message{Text: "Storage unavailable. Your attempt was not recorded.", Kind: KindError}
}

func tabSwitchMessage() Message {
	return Message{Text: "Session ended due to tab switch", Kind: KindWarning}
}

func violationsMessage() Message {
	return Message{Text: "Multiple security violations detected. Returning to calculator.", Kind: KindWarning}
}

func securityWarning(n int) Message {
	return Message{Text: securityWarnings[(n-1)%len(securityWarnings)], Kind: KindWarning}
}
