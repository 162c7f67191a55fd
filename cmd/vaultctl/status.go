package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BradenHooton/calcvault/internal/models"
)

func newStatusCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lockout state and vault contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				st, err := v.gate.Status(ctx)
				if err != nil {
					return err
				}
				content, err := v.registry.List(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if st.Locked {
					fmt.Fprintf(out, "%s Locked for %d more seconds\n", color.RedString("✗"), st.RemainingSeconds)
				} else {
					fmt.Fprintf(out, "%s Unlocked\n", color.GreenString("✓"))
				}
				fmt.Fprintf(out, "  Wrong attempts: %d (%d before lockout)\n", st.WrongAttempts, st.AttemptsUntilLockout)
				if st.DefaultPIN {
					fmt.Fprintf(out, "%s The default PIN is still in use\n", color.YellowString("!"))
					fmt.Fprintf(out, "%s Run %s\n", color.CyanString("→"), color.YellowString("vaultctl pin change"))
				}

				fmt.Fprintf(out, "\nVault links (%d):\n", content.Total())
				for _, c := range models.Categories {
					fmt.Fprintf(out, "  %-11s %d\n", c, len(content[c]))
				}
				return nil
			})
		},
	}
}
