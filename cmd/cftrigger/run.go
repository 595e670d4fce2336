package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cftrigger/internal/config"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
	"cftrigger/internal/scm"
	"cftrigger/internal/storage/models"
	"cftrigger/internal/trigger"
)

type runOptions struct {
	service   string
	branch    string
	repo      string
	remote    string
	gitURL    string
	gitBranch string
	jsonOut   bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a build and wait until it finishes",
		Long: `Triggers a Codefresh build and polls it every 5 seconds until it reaches
a terminal status.

With --service the service is looked up by name and --branch is built.
Otherwise the service is resolved from the git remote of the checkout
at --repo, or from --git-url and --git-branch when given. --git-branch
alone overrides the checkout's branch, which a detached HEAD lacks.

Exit status is 0 when the build passed, 1 when it failed or could not be
started, and 130 when interrupted.`,
		Example: `  cftrigger run --service my-service --branch main
  cftrigger run --repo . --remote origin
  cftrigger run --repo . --git-branch main
  cftrigger run --git-url git@github.com:acme/widgets.git --git-branch '*/main'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := opts.job(appConfig)
			if err != nil {
				return err
			}

			s, err := newStack(appConfig)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, runErr := s.runner.Run(ctx, trigger.Request{Job: job, Source: models.SourceCLI})

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				renderOutcome(out, result, runErr)
			}

			if runErr != nil {
				return runErr
			}
			if !result.Outcome.Passed {
				return errBuildFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.service, "service", "s", "", "Codefresh service name (default from job.service)")
	f.StringVarP(&opts.branch, "branch", "b", "", "Branch to build for --service (default from job.branch)")
	f.StringVar(&opts.repo, "repo", ".", "Path of the git checkout used to resolve the service")
	f.StringVar(&opts.remote, "remote", "", "Git remote to read from the checkout (default from job.remote)")
	f.StringVar(&opts.gitURL, "git-url", "", "Repository URL to resolve instead of reading the checkout")
	f.StringVar(&opts.gitBranch, "git-branch", "", "Branch spec for --git-url or the checkout, e.g. */main")
	f.BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")

	return cmd
}

// job builds the job identity from flags, falling back to configuration and the checkout
func (o *runOptions) job(cfg *config.Config) (engine.JobContext, error) {
	service := firstNonEmpty(o.service, cfg.Job.Service)
	if service != "" {
		return engine.JobContext{
			ServiceName: service,
			Branch:      firstNonEmpty(o.branch, cfg.Job.Branch),
		}, nil
	}

	if o.gitURL != "" {
		return engine.JobContext{Source: scm.Git(o.gitURL, o.gitBranch)}, nil
	}

	remote := firstNonEmpty(o.remote, cfg.Job.Remote)
	src, err := scm.Detect(o.repo, remote)
	if errors.Is(err, scm.ErrNotRepository) {
		// Resolution reports the unsupported source
		logger.Warn("No git checkout found", "path", o.repo, "error", err)
		return engine.JobContext{Source: src}, nil
	}
	if err != nil {
		return engine.JobContext{}, err
	}
	if o.gitBranch != "" && src.Kind() == engine.GitKind {
		// A detached checkout (the usual CI case) has no branch of its own
		remote := ""
		if remotes := src.Remotes(); len(remotes) == 1 {
			remote = remotes[0]
		}
		src = scm.Git(remote, o.gitBranch)
	}
	return engine.JobContext{Source: src}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
