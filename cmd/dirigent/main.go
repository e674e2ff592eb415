package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dirigent/internal/config"
	"dirigent/internal/dispatch"
	"dirigent/internal/embedding"
	"dirigent/internal/logging"
	"dirigent/internal/router"
	"dirigent/internal/session"
	"dirigent/internal/store"
	"dirigent/internal/todo"
	"dirigent/internal/tools"
	browsertool "dirigent/internal/tools/browser"
	filetool "dirigent/internal/tools/file"
	"dirigent/internal/tools/research"
	shelltool "dirigent/internal/tools/shell"
	todotool "dirigent/internal/tools/todo"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	sessionID  string

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dirigent",
	Short: "dirigent - directive protocol and task routing for model-driven agents",
	Long: `dirigent turns the tag-delimited directives a language model embeds in
its replies into validated, audited tool executions, and routes each
incoming prompt to the backend model best suited to it.

Pipeline: model output -> parser -> validator -> dispatcher -> tool,
with results encoded back into the transcript for the next turn.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if workspace != "" {
			cfg.Workspace = workspace
		}
		if cfg.Workspace, err = filepath.Abs(cfg.Workspace); err != nil {
			return fmt.Errorf("failed to resolve workspace: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := logging.Initialize(cfg.Workspace, cfg.Logging); err != nil {
			logger.Warn("File logging unavailable", zap.Error(err))
		}
		if err := logging.InitAudit(); err != nil {
			logger.Warn("Audit logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildRegistry wires every builtin tool against the workspace.
func buildRegistry() (*tools.Registry, *todo.Manager) {
	reg := tools.NewRegistry()
	mgr := todo.NewManager(filepath.Join(cfg.Workspace, "todo.md"))

	filetool.Register(reg, cfg.Workspace)
	shelltool.Register(reg, cfg.Workspace)
	research.Register(reg)
	browsertool.Register(reg, cfg.Workspace)
	todotool.Register(reg, mgr)
	return reg, mgr
}

func openStore() *store.Store {
	dbPath := cfg.Store.DatabasePath
	if dbPath == "" {
		dbPath = "data/dirigent.db"
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Workspace, dbPath)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		// Persistence being unavailable is fatal, not degradable.
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	return db
}

func buildRouter(db *store.Store) *router.Router {
	engine := embedding.NewCachedEngine(embedding.NewEngineWithFallback(cfg.Embedding), nil)
	if cfg.Embedding.CachePath != "" {
		cachePath := cfg.Embedding.CachePath
		if !filepath.IsAbs(cachePath) {
			cachePath = filepath.Join(cfg.Workspace, cachePath)
		}
		if err := engine.Cache().Load(cachePath); err != nil {
			logger.Warn("Failed to load embedding cache", zap.Error(err))
		}
	}
	r := router.NewFromConfig(cfg.Routing, engine)
	if db != nil {
		r = r.WithRecorder(db)
	}
	return r
}

// processCmd runs one model turn's output through the pipeline.
var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Execute the directives found in a model turn",
	Long: `Reads model output from the given file (or stdin), executes every
directive found in it in order, and prints the encoded tool results
that would be folded back into the conversation transcript.

With --watch, keeps watching the file and reprocesses it on every
write, which is convenient when a driver process appends turns.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	db := openStore()
	defer db.Close()

	reg, mgr := buildRegistry()
	d := dispatch.New(reg, cfg.Dispatch)
	runner := session.NewRunner(sessionID, d).WithStore(db).WithTodos(mgr)

	watch, _ := cmd.Flags().GetBool("watch")

	if len(args) == 0 {
		if watch {
			return fmt.Errorf("--watch requires a file argument")
		}
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return processOnce(cmd, runner, string(text))
	}

	path := args[0]
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := processOnce(cmd, runner, string(text)); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return watchFile(cmd, runner, path)
}

func processOnce(cmd *cobra.Command, runner *session.Runner, text string) error {
	report := runner.ProcessTurn(cmd.Context(), text)
	logger.Info("Turn processed",
		zap.String("session", report.SessionID),
		zap.String("turn", report.TurnID),
		zap.Int("directives", report.DirectiveCount()),
		zap.Int("failed", len(report.Errors())))

	if report.Transcript != "" {
		fmt.Fprintln(cmd.OutOrStdout(), report.Transcript)
	}
	return nil
}

// watchFile reprocesses path on every write until interrupted.
func watchFile(cmd *cobra.Command, runner *session.Runner, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save,
	// which would drop a direct watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Watching for turns", zap.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			text, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("Failed to reread file", zap.Error(err))
				continue
			}
			if err := processOnce(cmd, runner, string(text)); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

// routeCmd classifies a prompt and prints the selected model.
var routeCmd = &cobra.Command{
	Use:   "route [prompt]",
	Short: "Select the backend model for a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := openStore()
		defer db.Close()

		prompt := strings.Join(args, " ")
		decision := buildRouter(db).Route(cmd.Context(), prompt)

		fmt.Fprintf(cmd.OutOrStdout(), "model: %s\n", decision.SelectedModel)
		fmt.Fprintf(cmd.OutOrStdout(), "task_type: %s\n", decision.TaskType)
		fmt.Fprintf(cmd.OutOrStdout(), "confidence: %.2f\n", decision.Confidence)
		if decision.OverrideReason != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "override: %s\n", decision.OverrideReason)
		}
		return nil
	},
}

// todoCmd groups checklist operations.
var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Inspect and modify the session checklist",
}

var todoShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current checklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := todo.NewManager(filepath.Join(cfg.Workspace, "todo.md"))
		doc := mgr.Snapshot()
		if doc == nil {
			return fmt.Errorf("no checklist exists yet (use 'todo ensure')")
		}
		fmt.Fprint(cmd.OutOrStdout(), doc.Serialize())
		return nil
	},
}

var todoEnsureCmd = &cobra.Command{
	Use:   "ensure [description]",
	Short: "Create the checklist if it does not exist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		mgr := todo.NewManager(filepath.Join(cfg.Workspace, "todo.md"))
		created, err := mgr.Ensure(strings.Join(args, " "), overwrite)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(cmd.OutOrStdout(), "checklist created")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "checklist already present")
		}
		return nil
	},
}

var todoUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Merge completed and new tasks into a section",
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		completed, _ := cmd.Flags().GetStringSlice("completed")
		newTasks, _ := cmd.Flags().GetStringSlice("new")

		mgr := todo.NewManager(filepath.Join(cfg.Workspace, "todo.md"))
		if err := mgr.Update(section, completed, newTasks); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), mgr.Snapshot().Serialize())
		return nil
	},
}

// toolsCmd lists the registered directive vocabulary.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered directive tags and their bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _ := buildRegistry()
		for _, tool := range reg.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", tool.Tag, tool.Description)
			for _, b := range tool.Bindings {
				req := "optional"
				if b.Required {
					req = "required"
				}
				typ := b.Type
				if typ == "" {
					typ = "string"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-18s %s, %s, %s\n", b.Name, b.Source, typ, req)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	processCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session identifier (default: random)")
	processCmd.Flags().Bool("watch", false, "Reprocess the file on every write")

	todoEnsureCmd.Flags().Bool("overwrite", false, "Replace an existing checklist")
	todoUpdateCmd.Flags().String("section", "Tasks", "Section to update")
	todoUpdateCmd.Flags().StringSlice("completed", nil, "Tasks to mark completed")
	todoUpdateCmd.Flags().StringSlice("new", nil, "Tasks to append as pending")

	todoCmd.AddCommand(todoShowCmd)
	todoCmd.AddCommand(todoEnsureCmd)
	todoCmd.AddCommand(todoUpdateCmd)

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(todoCmd)
	rootCmd.AddCommand(toolsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
