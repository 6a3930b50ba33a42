package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/proofgate/pkg/adapter"
	"github.com/zen-systems/proofgate/pkg/config"
	"github.com/zen-systems/proofgate/pkg/explainer"
	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/mathtool"
	"github.com/zen-systems/proofgate/pkg/pipeline"
	"github.com/zen-systems/proofgate/pkg/router"
	"github.com/zen-systems/proofgate/pkg/schema"
	"github.com/zen-systems/proofgate/pkg/server"
	"github.com/zen-systems/proofgate/pkg/solver"
	"github.com/zen-systems/proofgate/pkg/verifier"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "proofgate",
		Short: "Math reasoning pipeline with a human-review confidence gate",
		Long: `Proofgate answers math problems through a staged pipeline
(route, solve, verify, explain) and suspends any run whose verification
confidence falls below the gate threshold, so a human reviews it before
an answer is released.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(resumeCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// createAdapters constructs every adapter with a configured key, plus the
// mock adapter for offline runs.
func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := map[string]adapter.Adapter{
		"mock": adapter.NewMockAdapter(),
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("google adapter: %w", err)
		}
		adapters["google"] = a
	}
	if cfg.GroqAPIKey != "" {
		a, err := adapter.NewGroqAdapter(cfg.GroqAPIKey)
		if err != nil {
			return nil, fmt.Errorf("groq adapter: %w", err)
		}
		adapters["groq"] = a
	}
	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		adapters["openai"] = a
	}
	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	return adapters, nil
}

// resolveBinding picks the adapter and model for one capability. An explicit
// binding wins; otherwise Google is the primary provider with Groq as the
// fallback, and the mock adapter covers offline use.
func resolveBinding(binding config.Binding, adapters map[string]adapter.Adapter) (adapter.Adapter, string, error) {
	if binding.Adapter != "" {
		a, ok := adapters[binding.Adapter]
		if !ok {
			return nil, "", fmt.Errorf("adapter %q not configured (missing API key?)", binding.Adapter)
		}
		model := binding.Model
		if model == "" {
			model = a.Models()[0]
		}
		return a, model, nil
	}

	for _, name := range []string{"google", "groq", "mock"} {
		if a, ok := adapters[name]; ok {
			return a, a.Models()[0], nil
		}
	}
	return nil, "", fmt.Errorf("no adapter available")
}

func buildOrchestrator(cfg *config.Config, store ledger.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	adapters, err := createAdapters(cfg)
	if err != nil {
		return nil, err
	}

	routeAdapter, routeModel, err := resolveBinding(cfg.Capabilities.Route, adapters)
	if err != nil {
		return nil, fmt.Errorf("route capability: %w", err)
	}
	solveAdapter, solveModel, err := resolveBinding(cfg.Capabilities.Solve, adapters)
	if err != nil {
		return nil, fmt.Errorf("solve capability: %w", err)
	}
	verifyAdapter, verifyModel, err := resolveBinding(cfg.Capabilities.Verify, adapters)
	if err != nil {
		return nil, fmt.Errorf("verify capability: %w", err)
	}
	explainAdapter, explainModel, err := resolveBinding(cfg.Capabilities.Explain, adapters)
	if err != nil {
		return nil, fmt.Errorf("explain capability: %w", err)
	}

	logger.Info("capabilities bound",
		"route", routeAdapter.Name()+"/"+routeModel,
		"solve", solveAdapter.Name()+"/"+solveModel,
		"verify", verifyAdapter.Name()+"/"+verifyModel,
		"explain", explainAdapter.Name()+"/"+explainModel)

	return pipeline.New(
		router.New(routeAdapter, routeModel),
		solver.New(solveAdapter, solveModel, mathtool.New()),
		verifier.New(verifyAdapter, verifyModel, cfg.ConfidenceThreshold),
		explainer.New(explainAdapter, explainModel),
		store,
		pipeline.Options{
			Threshold:    cfg.ConfidenceThreshold,
			StageTimeout: cfg.StageTimeout,
			EvidenceDir:  cfg.EvidenceDir,
			Logger: func(format string, args ...any) {
				logger.Info(fmt.Sprintf(format, args...))
			},
		},
	), nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func solveCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Run a problem through the pipeline",
		Long: `Runs a problem through route, solve, verify, and the confidence
gate. Prints the final outcome as JSON; a SUSPENDED outcome includes the
review record id for a later resume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			orchestrator, err := buildOrchestrator(cfg, ledger.NewMemoryStore(), newLogger())
			if err != nil {
				return err
			}

			outcome := orchestrator.StartRun(context.Background(), &schema.ProblemInput{
				ProblemText: args[0],
				Topic:       topic,
			})
			return printJSON(outcome)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic hint for deterministic routing")
	return cmd
}

func resumeCmd() *cobra.Command {
	var serverURL string
	var editedText string
	var finalAnswer string
	var steps []string

	cmd := &cobra.Command{
		Use:   "resume [record-id] [action]",
		Short: "Apply a review decision to a suspended run",
		Long: `Applies one of approve, reject, edit_problem, or correct_solution
to a run suspended on a running proofgate server (see the serve command).
edit_problem requires --edited-text; correct_solution requires
--final-answer and at least one --step.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := &pipeline.ResumePayload{EditedText: editedText}
			if finalAnswer != "" || len(steps) > 0 {
				payload.Corrected = &schema.Candidate{FinalAnswer: finalAnswer, Steps: steps}
			}

			client := server.NewClient(serverURL)
			outcome, err := client.Resume(context.Background(), args[0], pipeline.Action(args[1]), payload)
			if err != nil {
				return err
			}
			return printJSON(outcome)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the running server")
	cmd.Flags().StringVar(&editedText, "edited-text", "", "replacement problem text for edit_problem")
	cmd.Flags().StringVar(&finalAnswer, "final-answer", "", "corrected final answer for correct_solution")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "corrected solution step for correct_solution (repeatable)")
	return cmd
}

func pendingCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List runs suspended for human review",
		Long: `Lists the runs suspended for review on a running proofgate server
(see the serve command).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := server.NewClient(serverURL)
			pending, err := client.Pending(context.Background())
			if err != nil {
				return err
			}
			return printJSON(pending)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the running server")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Starts the HTTP server: POST /solve to run a problem, GET /review
to list suspended runs, POST /review/:id to resolve one, GET /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := newLogger()
			store := ledger.NewMemoryStore()
			orchestrator, err := buildOrchestrator(cfg, store, logger)
			if err != nil {
				return err
			}

			srv := server.New(orchestrator, orchestrator, store, logger)
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show topic hints and route tool grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOPIC\tROUTE\tTOOLS")

			var topics []string
			for topic := range router.TopicRoutes {
				topics = append(topics, topic)
			}
			sort.Strings(topics)

			for _, topic := range topics {
				route := router.TopicRoutes[topic]
				tools := "-"
				if granted := router.ToolsFor(route); len(granted) > 0 {
					tools = ""
					for i, tool := range granted {
						if i > 0 {
							tools += ", "
						}
						tools += tool
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", topic, route, tools)
			}

			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available adapters and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")

			for _, provider := range []string{"google", "groq", "openai", "anthropic", "mock"} {
				status := "no key"
				models := "-"
				if a, ok := adapters[provider]; ok {
					status = "ready"
					models = ""
					for i, m := range a.Models() {
						if i > 0 {
							models += ", "
						}
						models += m
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, models, status)
			}

			return w.Flush()
		},
	}
}
