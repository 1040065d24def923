package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pbaille/moodlog/internal/api"
	"github.com/pbaille/moodlog/internal/assistant"
	"github.com/pbaille/moodlog/internal/classifier"
	"github.com/pbaille/moodlog/internal/config"
	"github.com/pbaille/moodlog/internal/console"
	"github.com/pbaille/moodlog/internal/domain"
	"github.com/pbaille/moodlog/internal/query"
	"github.com/pbaille/moodlog/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moodlog",
		Short: "Personal mood journal",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if verbose {
				cfg.Verbose = true
			}

			zcfg := zap.NewProductionConfig()
			if cfg.Verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.moodlog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(recentCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())

	return rootCmd
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.DBPath, store.WithLogger(logger.Named("store")))
}

// emotionSource returns the configured classifier, or nil when none is set up
func emotionSource() api.EmotionSource {
	clf, err := classifier.New(classifier.Config{
		APIKey:   cfg.Classifier.APIKey,
		Model:    cfg.Classifier.Model,
		Endpoint: cfg.Classifier.Endpoint,
		Logger:   logger.Named("classifier"),
	})
	if err != nil {
		logger.Debug("classifier disabled", zap.Error(err))
		return nil
	}
	return clf
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Printf("Database ready at %s\n", cfg.DBPath)
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var emotion, note string
	var classify bool

	cmd := &cobra.Command{
		Use:   "add [user] [mood]",
		Short: "Add a mood entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mood, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("mood must be a number: %q", args[1])
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			emotion = strings.TrimSpace(emotion)
			if emotion == "" && classify && note != "" {
				if src := emotionSource(); src != nil {
					fmt.Print("Classifying... ")
					label, err := src.Classify(ctx, note)
					if err != nil {
						fmt.Printf("failed: %v\n", err)
					} else {
						fmt.Printf("done\n")
						emotion = label
					}
				} else {
					fmt.Println("(classification skipped: no api key)")
				}
			}

			var notePtr, emotionPtr *string
			if cmd.Flags().Changed("note") {
				notePtr = &note
			}
			emotionPtr = domain.Optional(emotion)

			entry, err := s.Append(ctx, args[0], mood, emotionPtr, notePtr)
			if err != nil {
				return err
			}

			fmt.Printf("Added entry #%d for %s\n", entry.UserEntryID, entry.UserID)
			fmt.Println(query.FormatEntry(*entry))
			return nil
		},
	}

	cmd.Flags().StringVarP(&emotion, "emotion", "e", "", "emotion label")
	cmd.Flags().StringVarP(&note, "note", "m", "", "free-text note")
	cmd.Flags().BoolVar(&classify, "classify", false, "detect the emotion from the note when none is given")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every entry by user and number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No entries yet. Use 'moodlog add' to create one.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%-12s #%-3d %s\n", truncate(e.UserID, 12), e.UserEntryID, query.FormatEntry(e))
			}
			return nil
		},
	}
}

func recentCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recent [user]",
		Short: "Show a user's most recent entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := query.New(s).DescribeRecent(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			switch r := res.(type) {
			case query.Success:
				fmt.Println(r.Formatted)
			case query.Failure:
				fmt.Println(r.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultRecentLimit, "number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [user] [entry#]",
		Short: "Delete an entry and renumber the rest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("entry number must be an integer: %q", args[1])
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			deleted, err := s.Delete(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Printf("Entry #%d deleted for user %s.\n", n, args[0])
			} else {
				fmt.Printf("No entry #%d found for %s.\n", n, args[0])
			}
			return nil
		},
	}
}

func journalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "Record entries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			c := console.New(s, emotionSource(), cmd.InOrStdin(), cmd.OutOrStdout(), logger.Named("console"))
			return c.Journal(cmd.Context())
		},
	}
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Browse and delete a user's recent entries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			c := console.New(s, nil, cmd.InOrStdin(), cmd.OutOrStdout(), logger.Named("console"))
			return c.Review(cmd.Context())
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			opts := []api.Option{
				api.WithLogger(logger.Named("api")),
				api.WithMaxConns(cfg.MaxConns),
			}
			if src := emotionSource(); src != nil {
				opts = append(opts, api.WithClassifier(src))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Starting server on %s\n", cfg.Addr)
			return api.New(s, cfg.Addr, opts...).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Talk to the mood assistant about a user's recent entries",
		Long: `Starts a conversation with an assistant that reads a user's recent entries
and suggests ways to improve their wellbeing. With a message argument it answers
once; otherwise it reads messages from stdin until EOF or "quit".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := assistant.NewGeminiClient(ctx, cfg.Assistant.APIKey)
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			agent := assistant.New(client.Models, assistant.NewEntriesTool(query.New(s)), assistant.Config{
				Model:    cfg.Assistant.Model,
				MaxTurns: cfg.Assistant.MaxTurns,
				Logger:   logger.Named("assistant"),
			})

			if len(args) > 0 {
				answer, err := agent.Ask(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}

			return chat(ctx, cmd, agent)
		},
	}
}

func chat(ctx context.Context, cmd *cobra.Command, agent *assistant.Agent) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	answer, err := agent.Ask(ctx, "Hello")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n> ", answer)

	for in.Scan() {
		msg := strings.TrimSpace(in.Text())
		if msg == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		if msg == "quit" || msg == "exit" {
			break
		}

		answer, err := agent.Ask(ctx, msg)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "%s\n\n> ", answer)
	}
	return in.Err()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
