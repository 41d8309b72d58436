package main

import (
	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "colino",
		Usage:   "access YouTube data using broker-stored OAuth tokens",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "user identifier for token storage",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "broker-url",
				Usage:   "base URL of the oauth broker",
				EnvVars: []string{"COLINO_BROKER_URL"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the local token database",
			},
		},
		Commands: []*cli.Command{
			runAuth,
			runStatus,
			runSubscriptions,
			runSearch,
			runChannelInfo,
		},
	}

	app.RunAndExitOnError()
}
