package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/mcp"
	"github.com/ganot/taskdeck/internal/transport"
)

var version = "dev"

var (
	mcpSession string

	keyToken     string
	keyUser      string
	keyEmail     string
	keyOrg       string
	keyFirstName string
	keyLastName  string
	keyRole      string

	rootCmd = &cobra.Command{
		Use:           "taskdeck",
		Short:         "Live dashboard backend for marketing teams",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC, the realtime stream and MCP over HTTP",
		RunE:  runServe,
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio as one user",
		RunE:  runMCP,
	}

	apikeyCmd = &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	apikeyAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Provision a user and issue an API key",
		RunE:  runAPIKeyAdd,
	}
)

func init() {
	mcpCmd.Flags().StringVar(&mcpSession, "session", "", "user id to act as (defaults to auth.default_session)")

	apikeyAddCmd.Flags().StringVar(&keyToken, "token", "", "token to register (generated when empty)")
	apikeyAddCmd.Flags().StringVar(&keyUser, "user", "", "user id")
	apikeyAddCmd.Flags().StringVar(&keyEmail, "email", "", "user email")
	apikeyAddCmd.Flags().StringVar(&keyOrg, "org", "", "organization name, created when missing")
	apikeyAddCmd.Flags().StringVar(&keyFirstName, "first-name", "", "first name")
	apikeyAddCmd.Flags().StringVar(&keyLastName, "last-name", "", "last name")
	apikeyAddCmd.Flags().StringVar(&keyRole, "role", string(profile.RoleTeamMember), "team_lead, team_member or client")
	_ = apikeyAddCmd.MarkFlagRequired("user")
	_ = apikeyAddCmd.MarkFlagRequired("email")
	_ = apikeyAddCmd.MarkFlagRequired("org")

	apikeyCmd.AddCommand(apikeyAddCmd)
	rootCmd.AddCommand(serveCmd, mcpCmd, apikeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	auth := transport.DefaultSessionMiddleware(a.cfg.Auth.DefaultSession)
	if a.cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(a.keys)
	}
	router := transport.NewServer(mcp.NewHandler(a.manager), transport.Options{
		Auth:           auth,
		Dashboards:     a.manager,
		Health:         a.registry,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger,
	})

	mcpServer := mcp.NewServer(mcp.Config{
		Dashboards:     a.manager,
		Resolver:       a.keys,
		AuthEnabled:    a.cfg.Auth.Enabled,
		DefaultSession: a.cfg.Auth.DefaultSession,
		TransportMode:  "http",
		Version:        version,
		Logger:         a.logger,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr, "auth", a.cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", "error", err)
	}
	return nil
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// Logs go to stderr so stdout carries only protocol traffic.
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	session := mcpSession
	if session == "" {
		session = a.cfg.Auth.DefaultSession
	}
	if session == "" {
		return fmt.Errorf("--session is required when auth.default_session is unset")
	}

	server := mcp.NewServer(mcp.Config{
		Dashboards:     a.manager,
		DefaultSession: session,
		TransportMode:  "stdio",
		Version:        version,
		Logger:         a.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting stdio transport", "session_id", session)
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func runAPIKeyAdd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	profiles := profile.NewService(a.store, collection.Options{Logger: a.logger})
	p, err := profiles.EnsureProfile(ctx, profile.EnsureRequest{
		UserID:       keyUser,
		Email:        keyEmail,
		FirstName:    keyFirstName,
		LastName:     keyLastName,
		Role:         profile.Role(keyRole),
		Organization: keyOrg,
	})
	if err != nil {
		return fmt.Errorf("provision user: %w", err)
	}

	token := keyToken
	if token == "" {
		token = uuid.NewString()
	}
	if err := a.keys.Add(ctx, token, p.ID, "cli"); err != nil {
		return fmt.Errorf("add api key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "user:  %s (%s)\norg:   %s\ntoken: %s\n", p.ID, p.Email, p.OrganizationID, token)
	return nil
}
