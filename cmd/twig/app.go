package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"twig/internal/config"
	"twig/internal/errors"
	"twig/internal/logging"
	"twig/internal/middleware"
	"twig/internal/repository"
	"twig/internal/workspace"
)

// app carries what every command needs once settings are loaded.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	cwd      string
	settings *config.Settings
	logger   *logging.Logger
	palette  palette
}

// run executes one command line and returns the process exit status.
// Domain errors are outcomes and exit 0; anything else is fatal. Fatal
// errors from command bodies are logged by the middleware chain.
func run(args []string, stdout, stderr io.Writer) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "fatal: getting current directory: %v\n", err)
		return 1
	}

	a := &app{
		stdout: stdout,
		stderr: stderr,
		cwd:    cwd,
		logger: logging.Nop(),
	}
	return a.execute(context.Background(), args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	defer a.logger.Sync() //nolint:errcheck

	if err == nil {
		return 0
	}
	if errors.IsUserError(err) {
		fmt.Fprintln(a.stdout, errors.Message(err))
		return 0
	}
	fmt.Fprintf(a.stderr, "fatal: %v\n", err)
	return 1
}

// setup loads settings for the repository enclosing cwd, if any, and
// replaces the placeholder logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var paths config.Paths
	if root, err := workspace.FindRoot(a.cwd); err == nil {
		paths = config.NewPaths(root)
	}

	settings, err := config.Load(paths)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	logger, err := logging.NewLogger(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	a.settings = settings
	a.logger = logger
	a.palette = newPalette(colorEnabled(settings.Color, a.stdout))
	return nil
}

// command wraps a command body in the middleware chain. The chain is built
// per invocation because the logger only exists after setup.
func (a *app) command(body middleware.RunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		h := middleware.Chain(body,
			middleware.Recover(a.logger),
			middleware.Logger(a.logger),
			middleware.OperationID,
		)
		return h(cmd, args)
	}
}

func (a *app) options() []repository.Option {
	return []repository.Option{
		repository.WithSettings(a.settings),
		repository.WithLogger(a.logger.Logger),
	}
}

// withRepository opens the enclosing repository for the duration of fn.
func (a *app) withRepository(fn func(*repository.Repository) error) (err error) {
	root, err := workspace.FindRoot(a.cwd)
	if err != nil {
		return err
	}
	repo, err := repository.Open(root, a.options()...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			err = stderrors.Join(err, fmt.Errorf("closing repository: %w", cerr))
		}
	}()
	return fn(repo)
}

// path converts a command-line path into a worktree path.
func (a *app) path(repo *repository.Repository, arg string) (string, error) {
	return repo.Workspace().Rel(a.cwd, arg)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.stdout, args...)
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// exactArgs is cobra.ExactArgs reporting the domain error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.ErrIncorrectOperands.WithDetails(args)
		}
		return nil
	}
}
