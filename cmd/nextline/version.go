package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/nextline/internal/version"

	"github.com/urfave/cli/v3"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			fmt.Printf("nextline %s\n", info)
			if info.GoVersion != "" {
				fmt.Printf("go:       %s\n", info.GoVersion)
			}
			return nil
		},
	}
}
