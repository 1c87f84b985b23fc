package main

import (
	"context"
	"fmt"

	"github.com/SirWaddles/wickdl/config"
	"github.com/SirWaddles/wickdl/service"
)

// openService loads config from configPath (or the default location) and
// builds a Service against it.
func openService(ctx context.Context, configPath string) (*service.Service, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.IdentityURL == "" || cfg.LauncherHost == "" {
		return nil, fmt.Errorf("config at %s is missing identity_url or launcher_host", path)
	}

	// The descriptor URL's exact shape is an external contract (the
	// identity provider and launcher backend own it); this is the
	// launcher's per-build path convention this CLI targets.
	descriptorURL := cfg.LauncherHost + "/" + cfg.AppName + "/" + cfg.BuildID
	return service.New(ctx, descriptorURL, cfg.IdentityURL, cfg.ClientID, cfg.ClientSecret, cfg.MaxWorkers)
}
