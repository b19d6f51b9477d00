package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/duckity/duckity-go/client"
	"github.com/duckity/duckity-go/pkg/config"
	"github.com/duckity/duckity-go/pkg/logger"
	"github.com/duckity/duckity-go/pow"
)

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "duckity",
		Short:        "Fetch, solve, and validate Duckity anti-automation challenges",
		SilenceUsage: true,
	}
	root.AddCommand(solveCmd(), validateCmd(), demoCmd())
	return root
}

func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newClient(cfg config.Config, log *slog.Logger) *client.Client {
	return client.New(
		client.WithDomain(cfg.Domain),
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(log),
	)
}

func solveCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Fetch a challenge and print the solution token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Parse()
			if cfg.AppID == "" || cfg.ProfileCode == "" {
				return errors.New("DUCKITY_APP_ID and DUCKITY_PROFILE_CODE must be set")
			}
			log := logger.NewText(os.Stderr, logger.LevelFromEnv(cfg.LogLevel))

			ctx, stop := newContext()
			defer stop()

			ch, err := newClient(cfg, log).Fetch(ctx, cfg.AppID, cfg.ProfileCode)
			if err != nil {
				return err
			}
			if cfg.SolveTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.SolveTimeout)
				defer cancel()
			}
			if workers == 0 {
				workers = cfg.Workers
			}
			token, err := pow.NewSession(log, pow.WithWorkers(workers)).Run(ctx, ch.Bytes())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "solver goroutines (0 = all CPUs)")
	return cmd
}

func validateCmd() *cobra.Command {
	var ipStr string
	cmd := &cobra.Command{
		Use:   "validate <token>",
		Short: "Validate a solution token with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Parse()
			if cfg.AppID == "" || cfg.AppSecret == "" || cfg.ProfileCode == "" {
				return errors.New("DUCKITY_APP_ID, DUCKITY_APP_SECRET, and DUCKITY_PROFILE_CODE must be set")
			}
			token := args[0]

			ip, err := clientIP(ipStr, token)
			if err != nil {
				return err
			}
			log := logger.NewText(os.Stderr, logger.LevelFromEnv(cfg.LogLevel))

			ctx, stop := newContext()
			defer stop()

			ok, err := newClient(cfg, log).Validate(ctx, client.ValidateRequest{
				AppID:       cfg.AppID,
				AppSecret:   cfg.AppSecret,
				ProfileCode: cfg.ProfileCode,
				Token:       token,
				ClientIP:    ip,
			})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), styleErr.Render("rejected"))
				os.Exit(1)
			}
			fmt.Fprintln(cmd.OutOrStdout(), styleOK.Render("accepted"))
			return nil
		},
	}
	cmd.Flags().StringVar(&ipStr, "ip", "", "client IP the challenge was issued for (default: read from the token)")
	return cmd
}

// clientIP resolves the IP to validate against: an explicit flag wins,
// otherwise it comes out of the token's embedded challenge.
func clientIP(flag, token string) (netip.Addr, error) {
	if flag != "" {
		ip, err := netip.ParseAddr(flag)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("parse --ip: %w", err)
		}
		return ip, nil
	}
	sol, err := pow.DecodeToken(token)
	if err != nil {
		return netip.Addr{}, err
	}
	return sol.Descriptor.ClientIP, nil
}

func demoCmd() *cobra.Command {
	var (
		offline    bool
		difficulty int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through the full fetch, solve, and validate flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Parse()
			log := logger.NewText(os.Stderr, logger.LevelFromEnv(cfg.LogLevel))
			out := cmd.OutOrStdout()

			ctx, stop := newContext()
			defer stop()

			if offline {
				return runOfflineDemo(ctx, cmd, log, difficulty, cfg.Workers)
			}
			if cfg.AppID == "" || cfg.AppSecret == "" || cfg.ProfileCode == "" {
				fmt.Fprintln(out, styleWarn.Render(
					"Set DUCKITY_APP_ID, DUCKITY_APP_SECRET, and DUCKITY_PROFILE_CODE, or pass --offline."))
				return errors.New("missing credentials")
			}

			fmt.Fprintf(out, "Domain: %s\n", cfg.Domain)
			fmt.Fprintln(out, "Fetching a challenge from the server...")

			c := newClient(cfg, log)
			ch, err := c.Fetch(ctx, cfg.AppID, cfg.ProfileCode)
			if err != nil {
				return err
			}
			desc, err := ch.Descriptor()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Solving the challenge (%s, difficulty %d)...\n",
				desc.Scheme().Name(), desc.Difficulty)

			start := time.Now()
			token, err := pow.NewSession(log, pow.WithWorkers(cfg.Workers)).Run(ctx, ch.Bytes())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintln(out, "Validating the solution with the server...")
			ok, err := c.Validate(ctx, client.ValidateRequest{
				AppID:       cfg.AppID,
				AppSecret:   cfg.AppSecret,
				ProfileCode: cfg.ProfileCode,
				Token:       token,
				ClientIP:    desc.ClientIP,
			})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, styleErr.Render("Validation failed."))
				return errors.New("token rejected")
			}
			fmt.Fprintln(out, styleOK.Render("Validation succeeded!"))
			fmt.Fprintf(out, "Solved the challenge in %s.\n", elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "self-issue a local challenge instead of calling the API")
	cmd.Flags().IntVar(&difficulty, "difficulty", 16, "difficulty for --offline challenges")
	return cmd
}

// runOfflineDemo issues a local challenge, solves it, and verifies the token
// with the same predicate check the server would run.
func runOfflineDemo(ctx context.Context, cmd *cobra.Command, log *slog.Logger, difficulty, workers int) error {
	out := cmd.OutOrStdout()

	var seed [pow.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return err
	}
	now := time.Now()
	raw, err := pow.Marshal(&pow.Descriptor{
		Algorithm:  pow.AlgSHA256,
		Difficulty: difficulty,
		IssuedAt:   now,
		ExpiresAt:  now.Add(2 * time.Minute),
		Seed:       seed,
		ClientIP:   netip.MustParseAddr("127.0.0.1"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Solving a self-issued challenge (sha256-lzb, difficulty %d)...\n", difficulty)
	start := time.Now()
	token, err := pow.NewSession(log, pow.WithWorkers(workers)).Run(ctx, raw)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := pow.Verify(token, time.Now()); err != nil {
		fmt.Fprintln(out, styleErr.Render("Local verification failed."))
		return err
	}
	fmt.Fprintln(out, styleOK.Render(fmt.Sprintf("Verified locally in %s.", elapsed.Round(time.Millisecond))))
	fmt.Fprintln(out, token)
	return nil
}
