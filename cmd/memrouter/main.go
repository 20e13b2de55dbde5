package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qwertyasvishwa/Memory-Router/internal/api"
	"github.com/qwertyasvishwa/Memory-Router/internal/config"
	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
	"github.com/qwertyasvishwa/Memory-Router/internal/gitsync"
	"github.com/qwertyasvishwa/Memory-Router/internal/graph"
	"github.com/qwertyasvishwa/Memory-Router/internal/intake"
	"github.com/qwertyasvishwa/Memory-Router/internal/ledger"
	"github.com/qwertyasvishwa/Memory-Router/internal/normalize"
	"github.com/qwertyasvishwa/Memory-Router/internal/recent"
	"github.com/qwertyasvishwa/Memory-Router/internal/todo"
	"github.com/qwertyasvishwa/Memory-Router/internal/tools"
	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "memrouter",
		Short: "Route free-text memory entries into a SharePoint drive",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "memory_router.yaml", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(driveCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(afero.NewOsFs(), configPath)
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	return zcfg.Build()
}

func newGraphClient(cfg config.Config, log *zap.Logger) (*graph.Client, error) {
	if err := cfg.ValidateGraph(); err != nil {
		return nil, err
	}
	return graph.New(graph.Settings{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		DriveID:      cfg.DriveID,
		FolderPath:   cfg.FolderPath,
		SiteID:       cfg.SiteID,
	}, log), nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			client, err := newGraphClient(cfg, log)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			trk, err := tracker.New(fs, cfg.WeeklyLogPath, log)
			if err != nil {
				return err
			}
			enh, err := enhance.NewService(fs, cfg.EnhancementLogPath, log)
			if err != nil {
				return err
			}

			reg := tools.NewRegistry(log)
			reg.SeedHello()
			if err := reg.Load(fs, cfg.ToolsPath); err != nil {
				return err
			}

			var git *gitsync.Service
			if cfg.GitRepoPath != "" {
				git, err = gitsync.New(cfg.GitRepoPath, log)
				if err != nil {
					return err
				}
			}

			rec := recent.NewList(cfg.RecentCapacity)
			ledgers := ledger.NewService(client, log)
			todos := todo.NewService(client, log)

			server := api.New(api.Deps{
				Intake:    intake.NewService(client, rec, ledgers, todos, cfg.DriveID, log),
				Ledger:    ledgers,
				Todos:     todos,
				Tracker:   trk,
				Enhance:   enh,
				Tools:     reg,
				Git:       git,
				Drive:     client,
				Recent:    rec,
				Log:       log,
				SaveTools: func() error { return reg.Save(fs, cfg.ToolsPath) },
			}, cfg.ListenAddr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Run(ctx) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	return cmd
}

func submitCmd() *cobra.Command {
	var project, category, stage, notes string
	var tags []string

	cmd := &cobra.Command{
		Use:   "submit [content]",
		Short: "Submit one entry from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := zap.NewNop()
			client, err := newGraphClient(cfg, log)
			if err != nil {
				return err
			}

			rec := recent.NewList(cfg.RecentCapacity)
			ledgers := ledger.NewService(client, log)
			todos := todo.NewService(client, log)
			svc := intake.NewService(client, rec, ledgers, todos, cfg.DriveID, log)

			res, err := svc.AcceptEntry(cmd.Context(), normalize.EntryInput{
				Project:       project,
				Category:      domain.Category(category),
				ContentRaw:    strings.Join(args, " "),
				Tags:          tags,
				ProgressStage: stage,
				ProgressNotes: notes,
			}, domain.SourceAPI)
			if err != nil {
				return err
			}

			fmt.Printf("Stored entry %s (item %s)\n", res.Entry.ID[:8], res.ItemID)
			fmt.Printf("Tags: %s\n", strings.Join(res.Entry.Tags, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project name")
	cmd.Flags().StringVarP(&category, "category", "c", "note", "entry category (note or progress)")
	cmd.Flags().StringVar(&stage, "stage", "", "progress stage")
	cmd.Flags().StringVar(&notes, "notes", "", "progress notes")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable)")
	return cmd
}

func driveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Inspect the configured drive",
	}
	cmd.AddCommand(driveLsCmd())
	return cmd
}

func driveLsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List drive contents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newGraphClient(cfg, zap.NewNop())
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			items, err := client.ListChildren(cmd.Context(), path, "", nil)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(items)
			}

			if len(items) == 0 {
				fmt.Println("Empty folder.")
				return nil
			}
			for _, item := range items {
				marker := " "
				if item.IsFolder() {
					marker = "/"
				}
				fmt.Printf("%-40s%s %10d  %s\n", item.Name, marker, item.Size, item.LastModified.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check Graph connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newGraphClient(cfg, zap.NewNop())
			if err != nil {
				return err
			}

			if err := client.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("graph unreachable: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
