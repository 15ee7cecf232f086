package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/handiism/ingenuity-dl/internal/config"
	"github.com/handiism/ingenuity-dl/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON settings file")
	output := flag.StringP("output", "o", "", `output GIF path (default "output.gif")`)
	flag.Parse()

	settings := config.DefaultSettings()
	if *configPath != "" {
		var err error
		settings, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *output != "" {
		settings.OutputPath = *output
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
