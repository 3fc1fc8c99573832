package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazuki-io/gemcord/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "gemcord",
		Short: "Discord assistant bot backed by the Gemini API",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and handle messages",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo())
		},
	}

	root.AddCommand(serveCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
