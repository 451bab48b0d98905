package cli

import (
	"fmt"
	"os"

	"github.com/Jubii100/Growbal-sub000/internal/config"
	internal_http "github.com/Jubii100/Growbal-sub000/internal/http"
	"github.com/Jubii100/Growbal-sub000/internal/log"
	"github.com/Jubii100/Growbal-sub000/internal/metrics"
	internal_storage "github.com/Jubii100/Growbal-sub000/internal/storage"
	"github.com/Jubii100/Growbal-sub000/pkg/contextindex"
	"github.com/Jubii100/Growbal-sub000/pkg/engine"
	"github.com/Jubii100/Growbal-sub000/pkg/llm"
	"github.com/Jubii100/Growbal-sub000/pkg/research"
	"github.com/Jubii100/Growbal-sub000/pkg/validation"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the onboarding server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.DBConnStr = db
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			store := initStore(cfg.DBConnStr)
			defer store.Close()

			m := metrics.New()
			eng := buildEngine(cfg, store, m)
			if err := internal_http.StartServer(cfg.Port, eng, m.Handler()); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT env)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List onboarding sessions",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, _ := cmd.Flags().GetString("db")
			store := initStore(dbConnStr)
			defer store.Close()
			sessions, err := store.ListSessions()
			if err != nil {
				log.GetLogger().Errorf("Failed to list sessions: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to list sessions: %v\n", err)
				os.Exit(1)
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return
			}
			fmt.Println("Sessions:")
			for _, s := range sessions {
				fmt.Printf("- %s user=%s service=%s status=%s completion=%.0f%%\n",
					s.SessionID, s.UserID, s.ServiceType, s.Status, s.Metrics.Ratio*100)
			}
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session's checklist",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, _ := cmd.Flags().GetString("db")
			store := initStore(dbConnStr)
			defer store.Close()
			state, err := store.GetSession(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to load session %s: %v", args[0], err)
				fmt.Fprintf(os.Stderr, "Error: failed to load session: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Session %s (%s, %s) status=%s state=%s\n",
				state.SessionID, state.UserID, state.ServiceType, state.Status, state.State)
			if state.EscalationReason != "" {
				fmt.Printf("Escalation reason: %s\n", state.EscalationReason)
			}
			for _, it := range state.Checklist {
				marker := " "
				if it.Required {
					marker = "*"
				}
				fmt.Printf("%s %-28s %-20s %s\n", marker, it.Key, it.Status, it.Value)
			}
		},
	}

	rootCmd.AddCommand(serveCmd, listCmd, showCmd)
}

// buildEngine wires the engine with its collaborators. The LLM backend
// doubles as the research backend when no external search API is
// configured.
func buildEngine(cfg config.Config, store *internal_storage.PostgresStore, m *metrics.Metrics) *engine.Engine {
	logger := log.GetLogger()

	var gen llm.Generator
	switch cfg.LLMProvider {
	case "openai":
		gen = llm.NewClient(llm.OpenAIProvider{}, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey)
	case "anthropic":
		gen = llm.NewClient(llm.AnthropicProvider{}, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey)
	default:
		logger.Infof("No LLM provider configured; using template phrasing only")
	}

	var backends []research.Backend
	if gen != nil {
		backends = append(backends, research.NewLLMBackend(gen))
	}
	orch := research.NewOrchestrator(backends, research.DefaultConfig(), logger)

	return engine.New(
		store,
		validation.NewRuleValidator(),
		orch,
		contextindex.NewMemoryIndex(),
		gen,
		cfg.Engine,
		logger,
		engine.WithMetrics(m),
	)
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
