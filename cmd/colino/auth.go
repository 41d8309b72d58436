package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/urfave/cli/v2"
)

var runAuth = &cli.Command{
	Name:  "auth",
	Usage: "authenticate with the YouTube API via the broker",
	Action: func(cmd *cli.Context) error {
		userId := cmd.String("user-id")

		broker, err := newBrokerClient(cmd.String("broker-url"))
		if err != nil {
			return err
		}

		initResp, err := broker.initiate(cmd.Context)
		if err != nil {
			return err
		}

		fmt.Printf("Open the following URL in your browser to authorize access:\n\n  %s\n\n", initResp.AuthorizationUrl)
		openBrowser(initResp.AuthorizationUrl)

		fmt.Println("Waiting for authorization to complete...")

		payload, err := broker.waitForTokens(cmd.Context, initResp.SessionId)
		if err != nil {
			return err
		}

		db, err := openDb(cmd.String("db"))
		if err != nil {
			return err
		}

		if err := saveToken(db, userId, payload); err != nil {
			return err
		}

		fmt.Printf("Authentication successful. Tokens stored for user %s.\n", userId)
		fmt.Printf("Try: colino --user-id %s subscriptions\n", userId)

		return nil
	},
}

// openBrowser is best effort; the URL is always printed for manual use.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	_ = cmd.Start()
}
