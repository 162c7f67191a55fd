package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BradenHooton/calcvault/internal/models"
)

func newLinksCmd(open openFunc) *cobra.Command {
	linksCmd := &cobra.Command{
		Use:   "links",
		Short: "Curate the vault's Google Drive links",
	}

	linksCmd.AddCommand(newLinksListCmd(open))
	linksCmd.AddCommand(newLinksAddCmd(open))
	linksCmd.AddCommand(newLinksRemoveCmd(open))
	linksCmd.AddCommand(newLinksClearCmd(open))
	return linksCmd
}

func newLinksListCmd(open openFunc) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			show, err := parseCategories(category)
			if err != nil {
				return err
			}
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				content, err := v.registry.List(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, c := range show {
					fmt.Fprintf(out, "%s (%d)\n", color.CyanString(string(c)), len(content[c]))
					for _, l := range content[c] {
						fmt.Fprintf(out, "  %s  %s  %s\n", l.ID, l.Name, l.AddedDate.Format("2006-01-02"))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

func newLinksAddCmd(open openFunc) *cobra.Command {
	var name, category string
	cmd := &cobra.Command{
		Use:   "add <drive-url>",
		Short: "Add a Google Drive share link",
		Long: `Add a Google Drive share link. Without --category the category is
detected from the file name's extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				result, err := v.registry.Add(ctx, args[0], name, models.Category(category))
				if err != nil {
					if errors.Is(err, models.ErrDuplicateLink) {
						return errors.New("this file is already in the vault")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s to %s\n",
					color.GreenString("✓"), color.YellowString(result.Link.Name), result.Category)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (the extension picks the category)")
	cmd.Flags().StringVar(&category, "category", "", "photos, videos, files or recordings")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLinksRemoveCmd(open openFunc) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a link (the file stays in Google Drive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				c, err := v.registry.Remove(ctx, args[0], models.Category(category))
				if err != nil {
					if errors.Is(err, models.ErrNotFound) {
						return fmt.Errorf("no link with id %s", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s from %s\n", color.GreenString("✓"), args[0], c)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only search this category")
	return cmd
}

func newLinksClearCmd(open openFunc) *cobra.Command {
	var category string
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every link in a category, or all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (category != "") == all {
				return errors.New("specify exactly one of --category or --all")
			}
			return withVault(cmd, open, func(ctx context.Context, v *vault) error {
				if all {
					if err := v.registry.ClearAll(ctx); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s Cleared all vault content\n", color.GreenString("✓"))
					return nil
				}
				if err := v.registry.ClearCategory(ctx, models.Category(category)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Cleared all %s\n", color.GreenString("✓"), category)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category to clear")
	cmd.Flags().BoolVar(&all, "all", false, "clear every category")
	return cmd
}

func parseCategories(category string) ([]models.Category, error) {
	if category == "" {
		return models.Categories, nil
	}
	c := models.Category(category)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidCategory, category)
	}
	return []models.Category{c}, nil
}
