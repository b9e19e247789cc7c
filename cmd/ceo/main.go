package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ceoboard/internal/app"
	"ceoboard/internal/assemble"
	"ceoboard/internal/board"
	"ceoboard/internal/config"
	"ceoboard/internal/db"
	"ceoboard/internal/domain"
	"ceoboard/internal/migrate"
	"ceoboard/internal/server"
	"ceoboard/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "ceo",
	Short: "Portfolio board CLI",
	Long: `ceo manages the portfolio dashboard from the terminal.
- Workspace: a .ceoboard directory holding the database; the config lives in the DB and is imported explicitly.
- Board: two ordered lists, critical actions (top opportunities) and quick actions (next 30 days), seeded once from the analysis webhook and locally edited after that.
- Metrics: one record per configured variant (sales, instagram, financial), replaced wholesale on save.
- Submit: posts the assembled dashboard state to the webhook; create_plan replies are kept on the plan trail.
- Event log: diary of changes, view with 'ceo log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CEOBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(analysisCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func boardCmd() *cobra.Command {
	b := &cobra.Command{Use: "board", Short: "Manage the action board"}
	b.AddCommand(boardListCmd())
	b.AddCommand(boardAddCmd())
	b.AddCommand(boardUpdateCmd())
	b.AddCommand(boardRemoveCmd())
	return b
}

func boardListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List both collections, seeding on first load",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				criticals, quicks, err := a.LoadBoard(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"critical_actions": criticals,
						"quick_actions":    quicks,
					})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Action", "Impact", "Urgency", "Details"})
				for _, a := range criticals {
					tw.AppendRow(table.Row{a.ID, a.Action, a.Impact, a.Urgency, a.Details})
				}
				tw.Render()
				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Quick action"})
				for _, a := range quicks {
					tw.AppendRow(table.Row{a.ID, a.Action})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func boardAddCmd() *cobra.Command {
	var kind, action, impact, urgency, details string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				actor := viper.GetString("actor-id")
				switch kind {
				case board.KindQuick:
					qa, err := a.Board.AddQuick(ctx, actor, action)
					if err != nil {
						return err
					}
					return printJSONOrIndent(qa)
				case board.KindCritical:
					ca, err := a.Board.AddCritical(ctx, actor, domain.CriticalAction{
						Action:  action,
						Impact:  impact,
						Urgency: urgency,
						Details: details,
					})
					if err != nil {
						return err
					}
					return printJSONOrIndent(ca)
				default:
					return fmt.Errorf("--kind must be critical or quick")
				}
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", board.KindCritical, "critical or quick")
	cmd.Flags().StringVar(&action, "action", "", "action text")
	cmd.Flags().StringVar(&impact, "impact", "", "annual impact, e.g. +$28K anuales")
	cmd.Flags().StringVar(&urgency, "urgency", "", "high, medium or low")
	cmd.Flags().StringVar(&details, "details", "", "details")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func boardUpdateCmd() *cobra.Command {
	var kind, id, action, impact, urgency, details string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Partially update an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				actor := viper.GetString("actor-id")
				switch kind {
				case board.KindQuick:
					if !cmd.Flags().Changed("action") {
						return fmt.Errorf("--action required for quick actions")
					}
					qa, err := a.Board.UpdateQuick(ctx, actor, id, action)
					if err != nil {
						return err
					}
					return printJSONOrIndent(qa)
				case board.KindCritical:
					patch := board.CriticalPatch{}
					if cmd.Flags().Changed("action") {
						patch.Action = &action
					}
					if cmd.Flags().Changed("impact") {
						patch.Impact = &impact
					}
					if cmd.Flags().Changed("urgency") {
						patch.Urgency = &urgency
					}
					if cmd.Flags().Changed("details") {
						patch.Details = &details
					}
					ca, err := a.Board.UpdateCritical(ctx, actor, id, patch)
					if err != nil {
						return err
					}
					return printJSONOrIndent(ca)
				default:
					return fmt.Errorf("--kind must be critical or quick")
				}
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", board.KindCritical, "critical or quick")
	cmd.Flags().StringVar(&id, "id", "", "action id")
	cmd.Flags().StringVar(&action, "action", "", "action text")
	cmd.Flags().StringVar(&impact, "impact", "", "annual impact")
	cmd.Flags().StringVar(&urgency, "urgency", "", "high, medium or low")
	cmd.Flags().StringVar(&details, "details", "", "details")
	return cmd
}

func boardRemoveCmd() *cobra.Command {
	var kind, id string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				actor := viper.GetString("actor-id")
				switch kind {
				case board.KindQuick:
					return a.Board.RemoveQuick(ctx, actor, id)
				case board.KindCritical:
					return a.Board.RemoveCritical(ctx, actor, id)
				default:
					return fmt.Errorf("--kind must be critical or quick")
				}
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", board.KindCritical, "critical or quick")
	cmd.Flags().StringVar(&id, "id", "", "action id")
	return cmd
}

func metricsCmd() *cobra.Command {
	m := &cobra.Command{Use: "metrics", Short: "Manage the metrics record"}
	m.AddCommand(metricsShowCmd())
	m.AddCommand(metricsSetCmd())
	return m
}

func metricsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active variant's record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				values, err := a.Board.Metrics(ctx, a.Config().Board.MetricsVariant)
				if err != nil {
					return err
				}
				return printJSONOrIndent(map[string]any{
					"variant": a.Config().Board.MetricsVariant,
					"values":  values,
				})
			})
		},
	}
	return cmd
}

func metricsSetCmd() *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the record from key=value pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]string{}
			for _, p := range pairs {
				k, v, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --value %q, want key=value", p)
				}
				values[k] = v
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				record, err := a.Board.SaveMetrics(ctx, viper.GetString("actor-id"), a.Config().Board.MetricsVariant, values)
				if err != nil {
					return err
				}
				return printJSONOrIndent(record)
			})
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "value", nil, "key=value (repeatable)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func analysisCmd() *cobra.Command {
	a := &cobra.Command{Use: "analysis", Short: "Analysis bundle from the webhook"}
	a.AddCommand(analysisShowCmd())
	a.AddCommand(analysisRefreshCmd())
	return a
}

func analysisShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current bundle (cached, fetched, or fallback)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				bundle, fallback, err := a.Analysis(ctx)
				if err != nil {
					return err
				}
				return printJSONOrIndent(map[string]any{
					"bundle":   bundle,
					"fallback": fallback,
				})
			})
		},
	}
	return cmd
}

func analysisRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the bundle from the webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				bundle, fallback, err := a.RefreshAnalysis(ctx)
				if err != nil {
					return err
				}
				return printJSONOrIndent(map[string]any{
					"bundle":   bundle,
					"fallback": fallback,
				})
			})
		},
	}
	return cmd
}

func planCmd() *cobra.Command {
	p := &cobra.Command{Use: "plan", Short: "Plan submissions"}
	p.AddCommand(planCreateCmd())
	p.AddCommand(planListCmd())
	return p
}

func planCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit the board with create_plan and record the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Submit(ctx, viper.GetString("actor-id"), assemble.ActionCreatePlan)
				if err != nil {
					return err
				}
				return printJSONOrIndent(result.Plan)
			})
		},
	}
	return cmd
}

func planListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				plans, err := a.Board.Plans(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(plans)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Created"})
				for _, p := range plans {
					tw.AppendRow(table.Row{p.ID, p.Title, p.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Ask the webhook for a fresh executive summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Submit(ctx, viper.GetString("actor-id"), assemble.ActionExecSummary)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"status": result.Response.Status,
						"body":   result.Response.Body,
					})
				}
				fmt.Println(result.Response.Body)
				return nil
			})
		},
	}
	return cmd
}

func sessionCmd() *cobra.Command {
	s := &cobra.Command{Use: "session", Short: "Local session flags"}
	s.AddCommand(sessionLoginCmd())
	s.AddCommand(sessionStatusCmd())
	return s
}

func sessionLoginCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with the configured user code",
		RunE: func(cmd *cobra.Command, args []string) error {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" {
				return fmt.Errorf("--code required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if code != strings.ToUpper(a.Config().Board.UserCode) {
					return fmt.Errorf("código no encontrado")
				}
				if err := a.Store.Set(ctx, store.KeyUserCode, code); err != nil {
					return err
				}
				for _, key := range []string{store.KeyLoggedIn, store.KeyAccessGranted, store.KeyHasVisitedBefore} {
					if err := store.SetFlag(ctx, a.Store, key, true); err != nil {
						return err
					}
				}
				fmt.Printf("Logged in as %s\n", code)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "user code")
	return cmd
}

func sessionStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				out := map[string]any{}
				for name, key := range map[string]string{
					"logged_in":            store.KeyLoggedIn,
					"access_granted":       store.KeyAccessGranted,
					"onboarding_completed": store.KeyOnboardingCompleted,
					"has_visited_before":   store.KeyHasVisitedBefore,
				} {
					on, err := store.Flag(ctx, a.Store, key)
					if err != nil {
						return err
					}
					out[name] = on
				}
				if code, err := a.Store.Get(ctx, store.KeyUserCode); err == nil {
					out["user_code"] = code
				}
				return printJSONOrIndent(out)
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Manage board config"}
	c.AddCommand(configShowCmd())
	c.AddCommand(configImportCmd())
	c.AddCommand(configInitCmd())
	return c
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return printJSONOrIndent(a.Config())
			})
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			if err := app.UpsertConfig(cmd.Context(), conn, cfg); err != nil {
				return err
			}
			return printJSONOrIndent(cfg)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func configInitCmd() *cobra.Command {
	var userCode string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default ceoboard.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userCode == "" {
				return fmt.Errorf("--user-code required")
			}
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(strings.ToUpper(userCode))), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&userCode, "user-code", "", "user code")
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Audit log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Events.Latest(ctx, n, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Entity", "Actor"})
				for _, e := range events {
					entity := e.EntityKind
					if e.EntityID != "" {
						entity += "/" + e.EntityID
					}
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, entity, e.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				authCfg := server.AuthConfig{JWTSecret: os.Getenv("CEOBOARD_JWT_SECRET")}
				if authCfg.JWTSecret == "" {
					return fmt.Errorf("CEOBOARD_JWT_SECRET is required for bearer auth")
				}
				handler, err := server.New(server.Config{App: a, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				server.StartRefresher(ctx, a)
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving ceoboard API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := app.ResolveConfig(ctx, conn, workspace)
	if err != nil {
		return err
	}
	return fn(ctx, app.New(conn, cfg))
}

func printJSONOrIndent(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
