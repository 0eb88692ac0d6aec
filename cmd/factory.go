package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/vigil/internal/audit"
	"github.com/darmiel/vigil/internal/cliconfig"
	"github.com/darmiel/vigil/internal/config"
	"github.com/darmiel/vigil/internal/service"
	"github.com/darmiel/vigil/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the Vigil server to connect to.
	RemoteAddr string

	// Command-specific flags
	ConfigPath string // the "main" Vigil configuration => zones, policies, trust tunables
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetClient returns an authenticated HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.RemoteAddr // prio 1: command-line flag
	if server == "" {
		server = viper.GetString(VigilAddrKey) // prio 2: config/env
	}
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set VIGIL_ADDR)")
	}

	var token string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil { // token prio 1: saved credential
			token = cred.Token
		}
	}

	if envToken := os.Getenv("VIGIL_TOKEN"); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("config file not specified (use --config)")
	}
	return config.Load(f.ConfigPath)
}

// GetLocalService builds an access service straight from the config file, so
// decisions can be tested without a running server.
func (f *Factory) GetLocalService(ctx context.Context) (*service.AccessService, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	// for local CLI operations, we don't do auditing or persistence
	stack, err := buildStack(cfg, audit.NewNoopAuditor(), nil)
	if err != nil {
		return nil, err
	}
	return stack.service, nil
}

func (f *Factory) bindConfigFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&f.ConfigPath, "config", "f", "", "The Vigil config file to use")
}
