package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/app"
	"github.com/mcao2/truthguard/internal/config"
	"github.com/mcao2/truthguard/internal/render"
	"github.com/mcao2/truthguard/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "truthguard",
		Short:         "Check text and images for scams, misinformation and AI-generated fakes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cmd == root {
			return
		}
		if verbose {
			log.SetOutput(cmd.ErrOrStderr())
		} else {
			log.SetOutput(io.Discard)
		}
	}

	root.AddCommand(newAnalyzeCmd(), newHistoryCmd(), newInitCmd())
	return root
}

func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	f, err := tea.LogToFile(logPath, "truthguard")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	store, err := app.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ui.Option{ui.WithSharer(app.DefaultSharer())}
	var analyzer analysis.Analyzer
	client, err := app.NewClient(cfg.GetLLMConfig())
	if err != nil {
		log.Printf("analyzer unavailable err=%v", err)
		opts = append(opts, ui.WithSetupError(err))
	} else {
		log.Printf("analyzer ready provider=%s model=%s", client.Provider(), client.Model())
		analyzer = client
	}

	m := ui.NewModel(cfg, app.NewSession(analyzer, store), opts...)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		text      string
		imagePath string
		format    string
		simple    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze text and/or an image and print the verdict",
		Long: "Analyze text and/or an image and print the verdict.\n\n" +
			"Text comes from --text, the positional arguments, or stdin when the argument is \"-\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			if text == "" && len(args) > 0 {
				if len(args) == 1 && args[0] == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
					text = string(data)
				} else {
					text = strings.Join(args, " ")
				}
			}

			req := analysis.Request{Text: text}
			if imagePath != "" {
				img, err := analysis.LoadImage(imagePath)
				if err != nil {
					return err
				}
				req.Image = img
			}
			if err := req.Validate(); err != nil {
				return errors.New(analysis.UserMessage(err))
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("simple") {
				cfg.SimpleExplanations = simple
			}

			client, err := app.NewClient(cfg.GetLLMConfig())
			if err != nil {
				return err
			}
			store, err := app.OpenHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			session := app.NewSession(client, store)
			item, err := session.Analyze(ctx, req)
			if err != nil {
				log.Printf("analysis failed kind=%s err=%v", analysis.Kind(err), err)
				return errors.New(analysis.UserMessage(err))
			}

			return render.New(f).RenderAnalysis(cmd.OutOrStdout(), item, cfg.SimpleExplanations)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "text to analyze")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "path to an image to analyze")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().BoolVarP(&simple, "simple", "s", false, "show the simplified explanation")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete saved analyses",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryDeleteCmd(), newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var search, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			return withHistory(func(session *app.Session) error {
				items := session.History().Search(search)
				return render.New(f).RenderHistory(cmd.OutOrStdout(), items, time.Now())
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "only show items whose preview or verdict contains this text")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var format string
	var simple bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			return withHistory(func(session *app.Session) error {
				item, err := session.SelectHistoryItem(args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return render.New(f).RenderAnalysis(cmd.OutOrStdout(), item, simple)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().BoolVarP(&simple, "simple", "s", false, "show the simplified explanation")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved analyses by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(func(session *app.Session) error {
				for _, id := range args {
					if _, ok := session.History().Get(id); !ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s not found\n", id)
						continue
					}
					session.DeleteHistoryItem(id)
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return withHistory(func(session *app.Session) error {
				n := session.History().Len()
				session.ClearHistory()
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d item(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing")
	return cmd
}

// withHistory opens the configured store for a session that never analyzes
func withHistory(fn func(*app.Session) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := app.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(app.NewSession(nil, store))
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.SaveExampleConfig()
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", config.Path())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote example config to %s\n", config.Path())
			return nil
		},
	}
}
