package session

import (
	"fmt"

	"github.com/BradenHooton/calcvault/internal/models"
)

// Phase is the visible screen of a session
type Phase int

const (
	// PhaseHidden shows the decoy calculator
	PhaseHidden Phase = iota
	// PhaseEntering shows the PIN entry screen
	PhaseEntering
	// PhaseUnlocked shows the vault content
	PhaseUnlocked
)

func (p Phase) String() string {
	switch p {
	case PhaseHidden:
		return "hidden"
	case PhaseEntering:
		return "entering"
	case PhaseUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// MarshalText renders phases by name in JSON
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CommandKind enumerates keypad input
type CommandKind int

const (
	CommandDigit CommandKind = iota
	CommandBackspace
	CommandClear
	CommandCancel
	CommandSubmit
)

// Command is one keypad input fed to a Controller
type Command struct {
	Kind  CommandKind
	Digit byte
}

// Digit returns a digit command for d in '0'..'9'
func Digit(d byte) Command { return Command{Kind: CommandDigit, Digit: d} }

// Backspace removes the last entered digit
func Backspace() Command { return Command{Kind: CommandBackspace} }

// Clear empties the entry buffer
func Clear() Command { return Command{Kind: CommandClear} }

// Cancel leaves the PIN screen
func Cancel() Command { return Command{Kind: CommandCancel} }

// Submit verifies a complete buffer
func Submit() Command { return Command{Kind: CommandSubmit} }

// ParseCommand maps a wire command name to a Command
func ParseCommand(name, digit string) (Command, error) {
	switch name {
	case "digit":
		if len(digit) != 1 || digit[0] < '0' || digit[0] > '9' {
			return Command{}, fmt.Errorf("%w: digit must be a single character 0-9", models.ErrBadRequest)
		}
		return Digit(digit[0]), nil
	case "backspace":
		return Backspace(), nil
	case "clear":
		return Clear(), nil
	case "cancel":
		return Cancel(), nil
	case "submit":
		return Submit(), nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", models.ErrBadRequest, name)
	}
}
