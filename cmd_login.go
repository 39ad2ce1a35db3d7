package main

import (
	"os"

	"github.com/spf13/cobra"

	"clipmagic/login"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start clipmagic when you log in",
}

var loginEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start clipmagic at login",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := login.Enable(login.Args(os.Args[1:])); err != nil {
			return err
		}
		cmd.Println("clipmagic will start at login")
		return nil
	},
}

var loginDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting clipmagic at login",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := login.Disable(); err != nil {
			return err
		}
		cmd.Println("clipmagic will not start at login")
		return nil
	},
}

var loginStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether clipmagic starts at login",
	Run: func(cmd *cobra.Command, _ []string) {
		if login.Enabled() {
			cmd.Println("enabled")
		} else {
			cmd.Println("disabled")
		}
	},
}

func init() {
	loginCmd.AddCommand(loginEnableCmd, loginDisableCmd, loginStatusCmd)
}

// setLogin is the tray's "Start at Login" toggle.
func setLogin(on bool) error {
	if on {
		return login.Enable(login.Args(os.Args[1:]))
	}
	return login.Disable()
}
