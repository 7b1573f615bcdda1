package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"timesignal/internal/config"
)

var version = "dev"

var CLI struct {
	Version kong.VersionFlag
	Config  string   `help:"Config file (YAML or JSON). Defaults to $TIMESIGNAL_CONFIG or ./timesignal.yaml." short:"c"`
	EnvFile []string `help:"Dotenv files loaded before the config." default:".env" name:"env-file"`
	Verbose bool     `help:"Log at the configured level instead of warn (editor commands)." short:"v"`

	Run     RunCmd     `cmd:"" help:"Run the daemon." default:"1"`
	Status  StatusCmd  `cmd:"" help:"Show slot settings, quiet hours and upcoming signals."`
	Next    NextCmd    `cmd:"" help:"Show the next trigger time of each slot."`
	Play    PlayCmd    `cmd:"" help:"Play a slot's pattern once on the local vibrator."`
	Presets PresetsCmd `cmd:"" help:"List the built-in presets."`
	Slot    struct {
		Enable   SlotEnableCmd   `cmd:"" help:"Enable a slot (plays its pattern once)."`
		Disable  SlotDisableCmd  `cmd:"" help:"Disable a slot."`
		Preset   SlotPresetCmd   `cmd:"" help:"Select a built-in preset for a slot."`
		Pattern  SlotPatternCmd  `cmd:"" help:"Set a custom chain: vib1 [pause1 vib2 [pause2 vib3]] in ms."`
		Truncate SlotTruncateCmd `cmd:"" help:"Clear a chain field and every field after it."`
	} `cmd:"" help:"Edit per-slot settings."`
	Quiet QuietCmd `cmd:"" help:"Edit the quiet hours window."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("timesignal"),
		kong.Description("Quarter-hour haptic time signal daemon."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := config.LoadDotEnv(CLI.EnvFile...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := &Globals{
		ConfigPath: config.ResolvePath(CLI.Config),
		Verbose:    CLI.Verbose,
		Out:        os.Stdout,
	}
	if err := ctx.Run(g); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
