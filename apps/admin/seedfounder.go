package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/founder"
)

func (cli *commandLine) seedFounderCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "seedfounder --email EMAIL [--name NAME]",
		Short: "Create a founder, or reset its password when the email is taken. The password is prompted next.",
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
			return cli.seedFounder(cmd, name, email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The founder's email")
	cmd.Flags().StringVar(&name, "name", "Founder", "The founder's name")
	return cmd
}

// seedFounder creates a founder, or updates its password if one already uses the email.
func (cli *commandLine) seedFounder(cmd *cobra.Command, name, email, pwd string) error {
	nf := founder.NewFounder{Name: name, Email: email, Password: pwd}
	if err := nf.Validate(cli.validate); err != nil {
		return err
	}

	f, err := cli.founders.Create(cmd.Context(), nf)
	if err == nil {
		_, _ = fmt.Fprintf(cli.stdout(), "founder %s created\n", f.Email)
		return nil
	}
	if _, ok := errors.Cause(err).(*core.ConflictError); !ok {
		return err
	}

	if err = cli.founders.ResetPassword(cmd.Context(), nf.Email, nf.Password); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.stdout(), "founder %s already exists, password updated\n", nf.Email)
	return nil
}
