package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrylevesque/docverify/internal/api"
	"github.com/harrylevesque/docverify/internal/config"
	"github.com/harrylevesque/docverify/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "portalhost",
	Short: "Serve the portal pages and proxy their requests to the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), s)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.verifyctl.yaml)")
	rootCmd.Flags().String("server", "", "backend base URL (env VERIFYCTL_SERVER)")
	rootCmd.Flags().String("listen", "", "listen address")
	rootCmd.Flags().String("static-dir", "", "directory served under /public/ (default web/public)")
	rootCmd.Flags().String("log-level", "", "debug, info, warn or error")
	viper.BindPFlag(config.KeyServer, rootCmd.Flags().Lookup("server"))
	viper.BindPFlag(config.KeyListen, rootCmd.Flags().Lookup("listen"))
	viper.BindPFlag(config.KeyStaticDir, rootCmd.Flags().Lookup("static-dir"))
	viper.BindPFlag(config.KeyLogLevel, rootCmd.Flags().Lookup("log-level"))
}

func serve(ctx context.Context, s config.Settings) error {
	logger := utils.NewLogger(os.Stderr, s.LogLevel)
	if s.LogFile != "" {
		fl, err := utils.NewFileLogger(s.LogFile, s.LogLevel)
		if err != nil {
			return err
		}
		defer fl.Close()
		logger = fl
	}

	backend, err := url.Parse(s.ServerURL)
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           api.NewRouter(s.StaticDir, backend, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("portal host listening", "addr", s.Listen, "backend", s.ServerURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
