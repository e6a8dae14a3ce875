package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrylevesque/docverify/internal/config"
	"github.com/harrylevesque/docverify/internal/transport"
	"github.com/harrylevesque/docverify/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	settings config.Settings
	logger   = utils.NopLogger()
)

// errAlert marks a run whose response was rendered as an error. The alert
// has already been printed.
var errAlert = errors.New("request failed")

var rootCmd = &cobra.Command{
	Use:   "verifyctl",
	Short: "verifyctl drives the document upload/verify widget from a terminal",
	Long: `verifyctl binds the same controller the portal pages use to an in-memory
page, fires the events a browser would, and prints what the page shows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() {
	if err := execute(); err != nil {
		if !errors.Is(err, errAlert) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// execute runs the command line and closes the logger however it ended.
func execute() error {
	err := rootCmd.Execute()
	if cerr := logger.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.verifyctl.yaml)")
	rootCmd.PersistentFlags().String("server", "", "portal base URL (env VERIFYCTL_SERVER)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "request timeout")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "append logs to this file instead of stderr")
	viper.BindPFlag(config.KeyServer, rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag(config.KeyTimeout, rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyLogFile, rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() error {
	var err error
	settings, err = config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if settings.LogFile != "" {
		logger, err = utils.NewFileLogger(settings.LogFile, settings.LogLevel)
		if err != nil {
			return err
		}
	} else {
		logger = utils.NewLogger(os.Stderr, settings.LogLevel)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

func newClient() *transport.Client {
	return transport.NewClient(settings.ServerURL,
		transport.WithTimeout(settings.Timeout),
		transport.WithLogger(logger))
}
