package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/daemon"
	"gitlab.com/fpgadoc/fpgadoc/internal/docsite"
	"gitlab.com/fpgadoc/fpgadoc/internal/history"
	"gitlab.com/fpgadoc/fpgadoc/internal/linkcheck"
	"gitlab.com/fpgadoc/fpgadoc/internal/notify"
	"gitlab.com/fpgadoc/fpgadoc/internal/version"
	"gitlab.com/fpgadoc/fpgadoc/internal/vivado"
	"gitlab.com/fpgadoc/fpgadoc/internal/workspace"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Output       string `short:"o" help:"Output directory for the generated site (defaults to generated/sphinx_html)"`
		SkipCoverage bool   `help:"Skip the coverage badge and report publication"`
		CheckLinks   bool   `help:"Verify internal links in the built site"`
	} `cmd:"" help:"Build the documentation site"`

	Verify struct {
		Project string `short:"p" help:"Verify a single named project (default: all configured projects)"`
		Output  string `short:"o" help:"Output directory for build artifacts (default: ephemeral workspace)"`
	} `cmd:"" help:"Run the configured FPGA project builds and verify their results"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct {
		DataDir string `short:"d" help:"Data directory for daemon state" default:"./daemon-data"`
	} `cmd:"" help:"Rebuild the documentation continuously on schedule and on release note changes"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch kctx.Command() {
	case "build":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runBuild(cfg); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "verify":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runVerify(cfg); err != nil {
			slog.Error("Verify failed", "error", err)
			os.Exit(1)
		}
	case "init":
		slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	case "daemon":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runDaemon(cfg, CLI.Daemon.DataDir); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	}
}

func runBuild(cfg *config.Config) error {
	outputDir := CLI.Build.Output
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}

	gen := docsite.NewGenerator(cfg, outputDir).SetSkipCoverage(CLI.Build.SkipCoverage)
	report, err := gen.Build(context.Background())
	if report != nil {
		fmt.Print(report.Summary())
	}
	if err != nil {
		return err
	}

	if CLI.Build.CheckLinks {
		return runLinkCheck(outputDir)
	}
	return nil
}

func runLinkCheck(outputDir string) error {
	result, err := linkcheck.NewChecker(outputDir).Check()
	if err != nil {
		return err
	}
	slog.Info("Link check finished",
		"pages", result.Pages, "links", result.Links, "external", result.External)
	for _, broken := range result.Broken {
		slog.Error("Broken link", "page", broken.Page, "url", broken.URL, "reason", broken.Reason)
	}
	if !result.OK() {
		return fmt.Errorf("%d broken internal links", len(result.Broken))
	}
	return nil
}

func runVerify(cfg *config.Config) error {
	projects := cfg.Projects
	if CLI.Verify.Project != "" {
		project, err := cfg.Project(CLI.Verify.Project)
		if err != nil {
			return err
		}
		projects = []config.ProjectConfig{*project}
	}
	if len(projects) == 0 {
		return fmt.Errorf("no projects configured")
	}

	outputDir := CLI.Verify.Output
	if outputDir == "" {
		ws := workspace.NewManager("")
		if err := ws.Create(); err != nil {
			return err
		}
		defer func() {
			if err := ws.Cleanup(); err != nil {
				slog.Warn("Failed to cleanup workspace", "error", err)
			}
		}()
		outputDir = ws.GetPath()
	}

	var store *history.Store
	if cfg.Daemon.HistoryDB != "" {
		var err error
		store, err = history.Open(cfg.Daemon.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	publisher, err := notify.Connect(cfg.Daemon.NATSURL, cfg.Daemon.NATSSubject)
	if err != nil {
		return err
	}
	defer publisher.Close()

	verifier := vivado.NewVerifier(vivado.ExecDriver{})
	return verifyProjects(context.Background(), verifier, store, publisher,
		projects, cfg.Paths.RepoRoot, outputDir)
}

// verifyProjects runs each project build and records its outcome in the
// history store and on the notification subject.
func verifyProjects(ctx context.Context, verifier *vivado.Verifier, store *history.Store, publisher *notify.Publisher, projects []config.ProjectConfig, projectPath, outputDir string) error {
	failed := 0
	for _, project := range projects {
		slog.Info("Verifying project", "project", project.Name)
		started := time.Now()
		result, err := verifier.Verify(ctx, vivado.BuildSpec{
			Project:     project,
			ProjectPath: projectPath,
			OutputPath:  outputDir,
		})
		if err != nil {
			return err
		}
		duration := time.Since(started)

		slog.Info("Project verified",
			"project", project.Name,
			"outcome", string(result.Outcome),
			"artifacts", len(result.Artifacts))

		detail := ""
		if result.BuildErr != nil {
			detail = result.BuildErr.Error()
		}
		if store != nil {
			if herr := store.AppendVerify(ctx, history.VerifyRecord{
				Project:    project.Name,
				Outcome:    string(result.Outcome),
				StartedAt:  started,
				DurationMS: duration.Milliseconds(),
				Detail:     detail,
			}); herr != nil {
				slog.Warn("Failed to store verify record", "error", herr)
			}
		}
		if perr := publisher.PublishVerify(notify.VerifyEvent{
			Project:    project.Name,
			Outcome:    string(result.Outcome),
			DurationMS: duration.Milliseconds(),
		}); perr != nil {
			slog.Warn("Failed to publish verify event", "error", perr)
		}

		if result.Outcome != vivado.OutcomeSuccess {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed verification", failed, len(projects))
	}
	return nil
}

func runDaemon(cfg *config.Config, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	d, err := daemon.New(cfg, daemon.Options{
		OutputDir: cfg.Output.Directory,
		DataDir:   dataDir,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}
