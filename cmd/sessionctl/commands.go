package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ai-spm/internal/authapi"
	"ai-spm/internal/domain"
)

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the restored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			snap, err := opts.app.waitReady(ctx)
			if err != nil {
				return err
			}
			if !snap.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), snap.User)
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			user, err := opts.app.sessions.Login(ctx, email, password)
			opts.settle(cmd, err)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the persisted record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			err := opts.app.sessions.Logout(ctx)
			opts.settle(cmd, err)
			return err
		},
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var email, password, name, role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and start a session with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, roleList())
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			user, err := opts.app.sessions.Register(ctx, authapi.RegisterInput{
				Email:    email,
				Password: password,
				Name:     name,
				Role:     parsed,
			})
			opts.settle(cmd, err)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAnalyst), "role: "+roleList())
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newViewsCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List the dashboard views the current session may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if all {
				for _, v := range opts.app.views.Views() {
					roles := "any"
					if names := v.RoleNames(); len(names) > 0 {
						roles = strings.Join(names, ",")
					}
					fmt.Fprintf(out, "%-20s %-20s %s\n", v.Path, v.Name, roles)
				}
				return nil
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()
			snap, err := opts.app.waitReady(ctx)
			if err != nil {
				return err
			}
			if !snap.Authenticated() {
				return errors.New("not logged in")
			}
			for _, v := range opts.app.views.Visible(snap.User.Role) {
				fmt.Fprintf(out, "%-20s %s\n", v.Path, v.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every view with its allowed roles")
	return cmd
}

func roleList() string {
	roles := domain.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
