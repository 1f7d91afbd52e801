package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"twig/internal/errors"
	"twig/internal/repository"
	"twig/internal/workspace"
)

const watchDebounce = 200 * time.Millisecond

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "twig",
		Short: "twig is a small local version control system",
		Long: `twig snapshots a working directory into content-addressed commits,
keeps named branches over them and merges branches with a three-way merge.`,
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				a.println("Please enter a command.")
				return nil
			}
			return errors.ErrUnknownCommand.WithDetails(args[0])
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.ErrIncorrectOperands.WithDetails(err.Error())
	})
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		a.initCommand(),
		a.addCommand(),
		a.commitCommand(),
		a.rmCommand(),
		a.logCommand(),
		a.globalLogCommand(),
		a.findCommand(),
		a.statusCommand(),
		a.checkoutCommand(),
		a.branchCommand(),
		a.rmBranchCommand(),
		a.resetCommand(),
		a.mergeCommand(),
		a.diffCommand(),
	)
	return root
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a repository in the current directory",
		Args:  exactArgs(0),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Init(a.cwd, a.options()...)
			if err != nil {
				return err
			}
			return repo.Close()
		}),
	}
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Stage a file for the next commit",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				path, err := a.path(repo, args[0])
				if err != nil {
					return err
				}
				return repo.Add(path)
			})
		}),
	}
}

func (a *app) commitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commit <message>",
		Short: "Record the staged snapshot",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.ErrIncorrectOperands.WithDetails(args)
			}
			return nil
		},
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			var message string
			if len(args) == 1 {
				message = args[0]
			}
			return a.withRepository(func(repo *repository.Repository) error {
				_, err := repo.Commit(message)
				return err
			})
		}),
	}
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>",
		Short: "Unstage a file, or stop tracking and delete it",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				path, err := a.path(repo, args[0])
				if err != nil {
					return err
				}
				return repo.Remove(path)
			})
		}),
	}
}

func (a *app) logCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the history of the current branch",
		Args:  exactArgs(0),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				commits, err := repo.Log()
				if err != nil {
					return err
				}
				renderLog(a.stdout, commits, a.palette)
				return nil
			})
		}),
	}
}

func (a *app) globalLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "global-log",
		Short: "Show every commit ever made",
		Args:  exactArgs(0),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				commits, err := repo.GlobalLog()
				if err != nil {
					return err
				}
				renderLog(a.stdout, commits, a.palette)
				return nil
			})
		}),
	}
}

func (a *app) findCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <message>",
		Short: "Print the ids of commits with the given message",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				ids, err := repo.Find(args[0])
				if err != nil {
					return err
				}
				for _, id := range ids {
					a.println(id)
				}
				return nil
			})
		}),
	}
}

func (a *app) statusCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show branches, staged changes and worktree changes",
		Args:  exactArgs(0),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			render := func() error {
				return a.withRepository(func(repo *repository.Repository) error {
					s, err := repo.Status()
					if err != nil {
						return err
					}
					renderStatus(a.stdout, s, a.palette)
					return nil
				})
			}
			if err := render(); err != nil || !watch {
				return err
			}

			// The repository is reopened per render so other twig processes
			// can take the catalogue lock in between.
			root, err := workspace.FindRoot(a.cwd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var renderErr error
			ws := workspace.NewLocalWorkspace(root, a.logger.Logger)
			err = ws.Watch(ctx, watchDebounce, func() {
				if renderErr = render(); renderErr != nil {
					stop()
				}
			})
			if err != nil {
				return err
			}
			return renderErr
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render whenever the worktree changes")
	return cmd
}

// checkoutCommand accepts `checkout <branch>`, `checkout -- <file>` and
// `checkout <commit> -- <file>`.
func (a *app) checkoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch> | -- <file> | <commit> -- <file>",
		Short: "Switch branches or restore a file",
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			return a.withRepository(func(repo *repository.Repository) error {
				switch {
				case dash == -1 && len(args) == 1:
					return repo.Checkout(args[0])

				case dash == 0 && len(args) == 1:
					path, err := a.path(repo, args[0])
					if err != nil {
						return err
					}
					return repo.CheckoutFile(path)

				case dash == 1 && len(args) == 2:
					path, err := a.path(repo, args[1])
					if err != nil {
						return err
					}
					return repo.CheckoutFileAt(args[0], path)
				}
				return errors.ErrIncorrectOperands.WithDetails(args)
			})
		}),
	}
}

func (a *app) branchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch at the current commit",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				return repo.Branch(args[0])
			})
		}),
	}
}

func (a *app) rmBranchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-branch <name>",
		Short: "Delete a branch pointer",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				return repo.RemoveBranch(args[0])
			})
		}),
	}
}

func (a *app) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <commit>",
		Short: "Move the current branch to a commit and restore its files",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				return repo.Reset(args[0])
			})
		}),
	}
}

func (a *app) mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  exactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				res, err := repo.Merge(args[0])
				if err != nil {
					return err
				}
				switch {
				case res.UpToDate:
					a.println("Given branch is an ancestor of the current branch.")
				case res.FastForward:
					a.println("Current branch fast-forwarded.")
				case len(res.Conflicts) > 0:
					a.println("Encountered a merge conflict.")
				}
				return nil
			})
		}),
	}
}

func (a *app) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [file...]",
		Short: "Show unstaged changes to tracked files",
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *repository.Repository) error {
				paths := make([]string, 0, len(args))
				for _, arg := range args {
					path, err := a.path(repo, arg)
					if err != nil {
						return err
					}
					paths = append(paths, path)
				}

				diffs, err := repo.Diff(paths...)
				if err != nil {
					return err
				}
				renderDiff(a.stdout, diffs, a.palette)
				return nil
			})
		}),
	}
}
