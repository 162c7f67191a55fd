package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BradenHooton/calcvault/internal/models"
)

func newPinCmd(open openFunc) *cobra.Command {
	pin := &cobra.Command{
		Use:   "pin",
		Short: "Manage the vault PIN",
	}

	var current, next string
	change := &cobra.Command{
		Use:   "change",
		Short: "Replace the vault PIN",
		Long: `Replace the vault PIN. The current PIN must be supplied. Wrong current
PINs do not count toward the lockout and clearing a lockout is a side
effect of a successful change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				out := v.gate.ChangeCredential(ctx, current, next)
				v.audit.LogPinChange("vaultctl", out.Accepted, failureReason(out))

				switch {
				case out.Accepted:
					fmt.Fprintf(cmd.OutOrStdout(), "%s PIN successfully updated\n", color.GreenString("✓"))
					return nil
				case out.Reason == models.ReasonMalformedInput:
					return errors.New("PIN must be exactly 4 digits")
				case out.Reason == models.ReasonSamePin:
					return errors.New("new PIN cannot be the same as current PIN")
				case out.Reason == models.ReasonWrongPin:
					return errors.New("current PIN is incorrect")
				default:
					return fmt.Errorf("vault storage unavailable: %w", out.Err)
				}
			})
		},
	}
	change.Flags().StringVar(&current, "current", "", "current 4-digit PIN")
	change.Flags().StringVar(&next, "new", "", "new 4-digit PIN")
	_ = change.MarkFlagRequired("current")
	_ = change.MarkFlagRequired("new")

	pin.AddCommand(change)
	return pin
}

func failureReason(out models.Outcome) string {
	if out.Accepted {
		return ""
	}
	return out.Reason.String()
}
