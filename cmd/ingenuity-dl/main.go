package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/ingenuity-dl/internal/config"
	"github.com/handiism/ingenuity-dl/internal/console"
	"github.com/handiism/ingenuity-dl/internal/download"
	"github.com/handiism/ingenuity-dl/internal/model"
)

const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and maps its outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		fmt.Fprintln(stderr, "\nInterrupted, cancelling...")
		return exitInterrupted
	default:
		console.Errorf(stderr, "%s", describe(err))
		return 1
	}
}

type options struct {
	sol         int
	output      string
	fps         int
	save        bool
	configPath  string
	concurrency int
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ingenuity-dl",
		Short: "Turn a sol of Ingenuity raw images into an animated GIF",
		Long: `ingenuity-dl downloads the full-resolution raw images the Ingenuity
helicopter took on one Mars sol and assembles them into a looping GIF.

Without --sol the most recent sol with images is used.`,
		Example: `  ingenuity-dl
  ingenuity-dl --sol 54 --fps 5 -o flight9.gif
  ingenuity-dl -d 54 --save`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.sol, "sol", "d", int(model.LatestSol), "retrieve images from a specific sol (defaults to latest)")
	flags.StringVarP(&opts.output, "output", "o", "", `output GIF path (default "output.gif")`)
	flags.IntVar(&opts.fps, "fps", 0, "frames per second (default 3)")
	flags.BoolVarP(&opts.save, "save", "s", false, "save images instead of deleting them")
	flags.StringVar(&opts.configPath, "config", "", "path to a JSON settings file")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "maximum simultaneous image downloads, overriding the settings file")
	flags.Duration("timeout", 0, `per-request timeout, overriding the settings file (e.g. "30s")`)
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show every download and encoded frame")
	registerLoggingFlags(cmd)

	return cmd
}

func runDownload(cmd *cobra.Command, opts *options) error {
	logger, err := getBaseLogger(cmd)
	if err != nil {
		return err
	}

	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	renderer := console.NewRenderer(cmd.OutOrStdout(), opts.verbose)
	defer renderer.Close()

	manager := download.NewManager(settings, renderer.Handle, download.WithLogger(logger))
	_, err = manager.Run(cmd.Context(), download.Options{
		Sol:    model.Sol(opts.sol),
		Output: settings.OutputPath,
		FPS:    settings.FPS,
		Save:   settings.SaveImages,
	})
	return err
}

// loadSettings reads the settings file, if any, and applies the flags that
// were set on the command line.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if opts.configPath != "" {
		var err error
		settings, err = config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.OutputPath = opts.output
	}
	if flags.Changed("fps") {
		settings.FPS = opts.fps
	}
	if flags.Changed("save") {
		settings.SaveImages = opts.save
	}
	if flags.Changed("concurrency") {
		settings.MaxConcurrentDownloads = opts.concurrency
	}
	if flags.Changed("timeout") {
		timeout, err := flags.GetDuration("timeout")
		if err != nil {
			return nil, err
		}
		settings.RequestTimeout = config.Duration{Duration: timeout}
	}

	if opts.sol < 0 && opts.sol != int(model.LatestSol) {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidSol, opts.sol)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var (
		notFound  *model.SolNotFoundError
		dlErr     *model.DownloadError
		decodeErr *model.FrameDecodeError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.Is(err, model.ErrRemoteUnavailable):
		return fmt.Sprintf("could not reach the raw images feed: %v", err)
	case errors.Is(err, model.ErrMalformedResponse):
		return fmt.Sprintf("the raw images feed sent an unexpected response: %v", err)
	case errors.As(err, &dlErr):
		return fmt.Sprintf("image %d could not be downloaded from %s: %v", dlErr.Index, dlErr.URL, dlErr.Err)
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("image %d is not a readable image: %v", decodeErr.Index, decodeErr.Err)
	case errors.Is(err, model.ErrNoFrames):
		return fmt.Sprintf("nothing to animate: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out: %v", err)
	default:
		return err.Error()
	}
}
