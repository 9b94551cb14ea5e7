package cmdroot

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/clierr"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
)

func newDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Soft-delete a skill you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runDelete(cmd.Context(), args[0], yes))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func runDelete(ctx context.Context, slug string, yes bool) error {
	if !yes && !flagNoInput {
		confirmed, err := confirm(fmt.Sprintf("Delete %s? This hides it from search and browse.", slug))
		if err != nil {
			return err
		}
		if !confirmed {
			cliprint.Info("aborted")
			return nil
		}
	}
	c, _, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, slug); err != nil {
		return err
	}
	cliprint.Success("deleted %s", slug)
	return nil
}

func newUndeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "undelete <slug>",
		Short: "Restore a soft-deleted skill you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runUndelete(cmd.Context(), args[0], yes))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func runUndelete(ctx context.Context, slug string, yes bool) error {
	if !yes && !flagNoInput {
		confirmed, err := confirm(fmt.Sprintf("Restore %s?", slug))
		if err != nil {
			return err
		}
		if !confirmed {
			cliprint.Info("aborted")
			return nil
		}
	}
	c, _, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Undelete(ctx, slug); err != nil {
		return err
	}
	cliprint.Success("restored %s", slug)
	return nil
}

func confirm(message string) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, fmt.Errorf("read confirmation prompt: %w", err)
	}
	return answer, nil
}
