package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/colinohq/colino/youtube"
)

var runStatus = &cli.Command{
	Name:  "status",
	Usage: "check authentication status",
	Action: func(cmd *cli.Context) error {
		userId := cmd.String("user-id")

		db, err := openDb(cmd.String("db"))
		if err != nil {
			return err
		}

		tok, err := getToken(db, userId)
		if err != nil {
			return err
		}

		prefix := tok.AccessToken
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}

		fmt.Printf("Tokens found for user: %s\n", userId)
		fmt.Printf("  Access token: %s...\n", prefix)
		if tok.Scope != "" {
			fmt.Printf("  Scopes: %s\n", tok.Scope)
		}
		if !tok.ExpiresAt.IsZero() {
			fmt.Printf("  Expires: %s\n", tok.ExpiresAt.Format(time.RFC3339))
		}

		return nil
	},
}

var runSubscriptions = &cli.Command{
	Name:  "subscriptions",
	Usage: "list the authenticated user's subscriptions",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "max-results",
			Value: 50,
			Usage: "maximum number of subscriptions to fetch",
		},
		outputFlag,
	},
	Action: func(cmd *cli.Context) error {
		yt, err := newYouTubeClient(cmd)
		if err != nil {
			return err
		}

		subs, err := yt.Subscriptions(cmd.Context, cmd.Int64("max-results"))
		if err != nil {
			return err
		}

		if cmd.String("output") == "json" {
			return printJson(subs)
		}

		printSubscriptions(subs)
		return nil
	},
}

var runSearch = &cli.Command{
	Name:      "search",
	Usage:     "search for channels",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "max-results",
			Value: 25,
			Usage: "maximum number of results",
		},
		outputFlag,
	},
	Action: func(cmd *cli.Context) error {
		query := cmd.Args().First()
		if query == "" {
			return fmt.Errorf("no search query provided")
		}

		yt, err := newYouTubeClient(cmd)
		if err != nil {
			return err
		}

		channels, err := yt.SearchChannels(cmd.Context, query, cmd.Int64("max-results"))
		if err != nil {
			return err
		}

		if cmd.String("output") == "json" {
			return printJson(channels)
		}

		printChannels(channels)
		return nil
	},
}

var runChannelInfo = &cli.Command{
	Name:      "channel-info",
	Usage:     "get information about a specific channel",
	ArgsUsage: "<channel-id>",
	Action: func(cmd *cli.Context) error {
		channelId := cmd.Args().First()
		if channelId == "" {
			return fmt.Errorf("no channel id provided")
		}

		yt, err := newYouTubeClient(cmd)
		if err != nil {
			return err
		}

		info, err := yt.ChannelInfo(cmd.Context, channelId)
		if err != nil {
			return err
		}

		if info == nil {
			return fmt.Errorf("channel not found: %s", channelId)
		}

		return printJson(info)
	},
}

var outputFlag = &cli.StringFlag{
	Name:  "output",
	Value: "table",
	Usage: "output format (table or json)",
}

func newYouTubeClient(cmd *cli.Context) (*youtube.Client, error) {
	db, err := openDb(cmd.String("db"))
	if err != nil {
		return nil, err
	}

	// the broker is only needed when the stored token must be refreshed
	var broker *brokerClient
	if url := cmd.String("broker-url"); url != "" {
		broker, err = newBrokerClient(url)
		if err != nil {
			return nil, err
		}
	}

	tok, err := freshToken(cmd.Context, db, broker, cmd.String("user-id"))
	if err != nil {
		return nil, err
	}

	return youtube.NewClient(cmd.Context, tok.AccessToken)
}
