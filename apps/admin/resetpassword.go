package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var (
		email     string
		isFounder bool
	)

	cmd := &cobra.Command{
		Use:   "resetpassword --email EMAIL [--founder]",
		Short: "Reset the password of a library admin (or a founder). The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.readPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}

			if isFounder {
				err = cli.founders.ResetPassword(cmd.Context(), email, pwd)
			} else {
				err = cli.libraries.ResetPassword(cmd.Context(), email, pwd)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.stdout(), "password of %s updated\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The admin email of the library, or the founder's email")
	cmd.Flags().BoolVar(&isFounder, "founder", false, "Reset a founder's password")
	return cmd
}
