package main

import (
	"fmt"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/storekeep/storekeep/internal/prefs"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in against the backend account list",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var loginPassword string

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var setServerCmd = &cobra.Command{
	Use:   "set-server <url>",
	Short: "Persist the backend base URL in the preferences file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetServer,
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "",
		"password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, setServerCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return errors.Wrap(err, "read password")
		}
		password = string(raw)
	}

	sess, err := env.sessions.Login(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", sess.Username, sess.Role)
	return nil
}

func runLogout(*cobra.Command, []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.sessions.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runWhoami(*cobra.Command, []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	sess := env.sessions.Current()
	if sess == nil {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s (%s)\n", sess.Username, sess.Role)
	return nil
}

func runSetServer(_ *cobra.Command, args []string) error {
	path, err := prefs.DefaultPath()
	if err != nil {
		return err
	}
	p := prefs.Load(path)
	p.ServerURL = args[0]
	if err := prefs.Save(path, p); err != nil {
		return err
	}
	fmt.Println("Server set to", args[0])
	return nil
}
