package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/config"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/ui"
)

// app is the state shared by every command of one invocation
type app struct {
	configDir string
	dbPath    string
	driver    string
	verbose   bool

	cfg   *config.Config
	store *db.DB
	now   func() time.Time
}

// skipStore marks commands that never touch the store
const skipStore = "skip-store"

func defaultConfigDir() string {
	dir, err := config.DefaultDir()
	if err != nil {
		return filepath.Join(".", ".ultralist")
	}
	return dir
}

func newRootCmd(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "ultralist",
		Short:   "Local task manager with natural-language quick add",
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(ui.NewApp(cmd.Context(), a.store), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running application: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", defaultConfigDir(), "directory holding config.yaml")
	flags.StringVar(&a.dbPath, "db", "", "database file (overrides config)")
	flags.StringVar(&a.driver, "driver", "", "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	flags.BoolVar(&a.verbose, "verbose", false, "log store activity to stderr")

	root.AddCommand(
		newAddCmd(a),
		newParseCmd(a),
		newTaskCmd(a),
		newSubtaskCmd(a),
		newTagCmd(a),
		newProjectCmd(a),
		newFolderCmd(a),
		newSettingCmd(a),
		newThemeCmd(a),
		newModeCmd(a),
		newMobileCmd(a),
	)
	return root
}

// open loads the config and opens the store. Flags win over config values.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	if _, ok := cmd.Annotations[skipStore]; ok {
		return nil
	}

	logger := log.New(io.Discard, "", 0)
	if a.verbose {
		logger = log.New(cmd.ErrOrStderr(), "ultralist: ", log.LstdFlags)
	}
	opts := []db.Option{
		db.WithDriver(firstNonEmpty(a.driver, cfg.Driver)),
		db.WithLogger(logger),
	}

	if path := firstNonEmpty(a.dbPath, cfg.DBPath); path != "" {
		a.store, err = db.Open(path, opts...)
	} else {
		a.store, err = db.New(opts...)
	}
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// execute runs one invocation and closes the store afterwards. A close
// failure does not change the result and is only reported with --verbose.
func execute(ctx context.Context, a *app, version string, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(a, version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && a.verbose {
		fmt.Fprintf(stderr, "ultralist: %v\n", cerr)
	}
	return err
}

func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{now: time.Now}
	return execute(ctx, a, version, os.Args[1:], os.Stdout, os.Stderr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
