package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprintdeck/prioritizer/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Init writes the default configuration to the --config path so it can
be edited. Refuses to overwrite an existing file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(cfgPath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", cfgPath)
			os.Exit(1)
		}
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		out, err := yaml.Marshal(config.Default())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(cfgPath, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s wrote %s\n", green("✓"), cfgPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
