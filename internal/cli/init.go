package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/config"
	"github.com/specify-labs/specify/internal/git"
	"github.com/specify-labs/specify/internal/materialize"
	"github.com/specify-labs/specify/internal/release"
	"github.com/specify-labs/specify/internal/scaffold"
	"github.com/specify-labs/specify/internal/toolcheck"
	"github.com/specify-labs/specify/internal/tracker"
)

// Tracker steps owned by init rather than the pipeline.
const (
	stepPrecheck     = "precheck"
	stepAISelect     = "ai-select"
	stepScriptSelect = "script-select"
	stepGit          = "git"
	stepFinal        = "final"
)

type initOptions struct {
	ai               string
	script           string
	here             bool
	force            bool
	noGit            bool
	ignoreAgentTools bool
	skipTLS          bool
	githubToken      string
}

// initEnv carries everything runInit takes from the process, so tests can
// substitute it.
type initEnv struct {
	out         io.Writer
	errOut      io.Writer
	in          io.Reader
	interactive bool
	cwd         string
	goos        string
	getenv      func(string) string
	tools       *toolcheck.Checker
	settings    config.Settings
	// cacheDir receives the template version cache; empty disables it.
	cacheDir string
	// source overrides the GitHub client built from settings.
	source scaffold.TemplateSource
}

var initOpts initOptions

func init() {
	f := initCmd.Flags()
	f.StringVar(&initOpts.ai, "ai", "", "AI assistant to use (default: copilot)")
	f.StringVar(&initOpts.script, "script", "", "Script type to use: sh or ps (default: ps on Windows, sh elsewhere)")
	f.BoolVar(&initOpts.ignoreAgentTools, "ignore-agent-tools", false, "Skip checks for AI agent tools like Claude Code")
	f.BoolVar(&initOpts.noGit, "no-git", false, "Skip git repository initialization")
	f.BoolVar(&initOpts.here, "here", false, "Initialize the project in the current directory instead of creating a new one")
	f.BoolVar(&initOpts.force, "force", false, "Merge into a non-empty current directory without asking (with --here)")
	f.BoolVar(&initOpts.skipTLS, "skip-tls", false, "Skip SSL/TLS verification (not recommended)")
	f.StringVar(&initOpts.githubToken, "github-token", "", "GitHub token for API requests (or set GH_TOKEN or GITHUB_TOKEN)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize a new project from the latest template",
	Long: `Initialize a new Specify project from the latest template release.

Pass a project name to create a new directory, or "." / --here to set up
the current directory. Existing files are kept; the template is merged on
top and .vscode/settings.json is merged key by key.`,
	Example: `  specify init my-project
  specify init my-project --ai claude
  specify init . --ai copilot --script ps
  specify init --here --force --no-git`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		env := initEnv{
			out:         cmd.OutOrStdout(),
			errOut:      cmd.ErrOrStderr(),
			in:          os.Stdin,
			interactive: term.IsTerminal(int(os.Stdin.Fd())),
			cwd:         cwd,
			goos:        runtime.GOOS,
			getenv:      os.Getenv,
			tools:       toolcheck.New(),
			settings:    config.Current(),
			cacheDir:    config.Dir(),
		}
		return runInit(cmd.Context(), env, name, initOpts)
	},
}

type initTarget struct {
	name  string
	root  string
	merge bool
}

func runInit(ctx context.Context, env initEnv, name string, opts initOptions) error {
	target, err := resolveTarget(env.cwd, name, opts.here)
	if err != nil {
		return err
	}

	table, err := agents.Load()
	if err != nil {
		return err
	}
	agent, script, err := selectAgent(table, opts.ai, opts.script, env.goos)
	if err != nil {
		return err
	}

	if target.merge {
		proceed, err := confirmMerge(ctx, env, target.root, opts.force)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(env.out, "Operation cancelled")
			return nil
		}
	}

	if !opts.ignoreAgentTools && agent.RequiresCLI && !env.tools.Has(agent.Key) {
		return &missingToolError{agent: agent.Name, tool: agent.Key, installURL: agent.InstallURL}
	}

	if opts.skipTLS {
		fmt.Fprintln(env.errOut, warnText("Warning: TLS certificate verification is disabled (--skip-tls)."))
	}

	source := env.source
	if source == nil {
		token := resolveToken(opts.githubToken, env.settings, env.getenv)
		source = newReleaseClient(env.settings, token, opts.skipTLS)
	}

	printSetup(env.out, target, agent, script)

	t := tracker.New("Initialize " + branding.DisplayName() + " Project")
	t.Add(stepPrecheck, "Check required tools")
	t.Complete(stepPrecheck, "ok")
	t.Add(stepAISelect, "Select AI assistant")
	t.Complete(stepAISelect, agent.Key)
	t.Add(stepScriptSelect, "Select script type")
	t.Complete(stepScriptSelect, script.Key)
	for _, s := range scaffold.Steps() {
		t.Add(s.Key, s.Label)
	}
	t.Add(stepGit, "Initialize git repository")
	t.Add(stepFinal, "Finalize")

	live := tracker.NewLive(env.out, t)
	defer live.Stop()

	mode := materialize.ModeFresh
	if target.merge {
		mode = materialize.ModeMerge
	}
	outcome, err := scaffold.Run(ctx, scaffold.Options{
		Root:   target.root,
		Mode:   mode,
		Agent:  agent.Key,
		Script: script.Key,
		Source: source,
		Logger: logger,
	}, t)
	if err != nil {
		t.Error(stepFinal, "initialization failed")
		live.Stop()
		if outcome != nil && outcome.RolledBack {
			fmt.Fprintln(env.out, mutedStyle.Render("Removed partially created "+target.root))
		}
		return err
	}

	initGit(ctx, t, target.root, opts.noGit)
	t.Complete(stepFinal, "project ready")
	live.Stop()

	if outcome.Release != nil && env.cacheDir != "" {
		rememberTemplate(env.out, env.cacheDir, env.settings.TemplateRepo, outcome.Release)
	}

	fmt.Fprintln(env.out)
	fmt.Fprintln(env.out, successText("Project ready."))
	fmt.Fprintln(env.out)
	fmt.Fprintln(env.out, securityNotice(agent))
	fmt.Fprintln(env.out, nextSteps(target, agent, env.goos))
	fmt.Fprintln(env.out, enhancementCommands())
	return nil
}

// resolveTarget applies the project name rules: "." means --here, and a
// name and --here are mutually exclusive.
func resolveTarget(cwd, name string, here bool) (initTarget, error) {
	if name == "." {
		here = true
		name = ""
	}
	switch {
	case here && name != "":
		return initTarget{}, errors.New("cannot specify both a project name and --here")
	case !here && name == "":
		return initTarget{}, errors.New("must specify a project name, '.' or --here")
	case here:
		return initTarget{name: filepath.Base(cwd), root: cwd, merge: true}, nil
	}

	root := name
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, name)
	}
	if _, err := os.Stat(root); err == nil {
		return initTarget{}, fmt.Errorf("directory %q already exists; run init with --here inside it to merge the template", name)
	}
	return initTarget{name: name, root: root}, nil
}

func selectAgent(table *agents.Table, ai, script, goos string) (agents.Agent, agents.ScriptType, error) {
	if ai == "" {
		ai = table.DefaultAgent
	}
	agent, ok := table.Lookup(ai)
	if !ok {
		return agents.Agent{}, agents.ScriptType{}, fmt.Errorf("invalid AI assistant %q; choose from: %s", ai, strings.Join(table.Keys(), ", "))
	}
	if script == "" {
		script = agents.DefaultScript(goos)
	}
	st, ok := table.LookupScript(script)
	if !ok {
		return agents.Agent{}, agents.ScriptType{}, fmt.Errorf("invalid script type %q; choose from: %s", script, strings.Join(table.ScriptKeys(), ", "))
	}
	return agent, st, nil
}

// confirmMerge asks before merging into a non-empty directory. Without a
// terminal the only way through is --force.
func confirmMerge(ctx context.Context, env initEnv, root string, force bool) (bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", root, err)
	}
	if len(entries) == 0 {
		return true, nil
	}

	fmt.Fprintln(env.out, warnText(fmt.Sprintf("Warning: current directory is not empty (%d items)", len(entries))))
	fmt.Fprintln(env.out, "Template files will be merged with existing content and may overwrite existing files.")
	if force {
		fmt.Fprintln(env.out, "--force supplied: skipping confirmation and proceeding with merge")
		return true, nil
	}
	if !env.interactive {
		return false, errors.New("current directory is not empty; re-run with --force to merge into it")
	}
	fmt.Fprint(env.out, "Do you want to continue? [y/N]: ")
	return readYes(ctx, env.in)
}

// readYes reads one answer line. It gives up when ctx is cancelled since a
// blocked terminal read cannot be interrupted.
func readYes(ctx context.Context, in io.Reader) (bool, error) {
	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer <- line
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

func initGit(ctx context.Context, t *tracker.Tracker, root string, noGit bool) {
	if noGit {
		t.Skip(stepGit, "--no-git flag")
		return
	}
	if isRepo, err := git.IsRepo(ctx, root); err == nil && isRepo {
		t.Skip(stepGit, "existing repo detected")
		return
	}
	t.Start(stepGit, "initializing")
	author := git.DetectAuthor()
	hash, err := git.InitWithCommit(ctx, root, git.InitialCommitMessage, author)
	if err != nil {
		logger.Warn("git initialization failed", "root", root, "err", err)
		t.Error(stepGit, "init failed")
		return
	}
	logger.Debug("initial commit created", "hash", hash, "author", author.Name, "source", author.Source)
	if len(hash) > 7 {
		hash = hash[:7]
	}
	t.Complete(stepGit, "initialized ("+hash+")")
}

// rememberTemplate records the release in the version cache and mentions
// when it is newer than the one seen last time.
func rememberTemplate(w io.Writer, dir, repo string, rel *release.Release) {
	prev, err := release.LoadCache(dir)
	if err != nil {
		logger.Debug("ignoring unreadable version cache", "err", err)
	}
	if prev != nil && prev.Repo == repo && prev.TagName != "" {
		if cmp, err := release.CompareVersions(prev.TagName, rel.TagName); err == nil && cmp < 0 {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Template updated since last run: %s -> %s",
				release.TemplateVersion(prev.TagName), release.TemplateVersion(rel.TagName))))
		}
	}
	if err := release.SaveCache(dir, release.CacheFromRelease(repo, rel)); err != nil {
		logger.Debug("could not save version cache", "err", err)
	}
}
