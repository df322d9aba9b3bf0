package cli

import (
	"fmt"
	"time"

	"github.com/cuongbtq/gigflow-be/internal/config"
	"github.com/cuongbtq/gigflow-be/shared/database"
	"github.com/cuongbtq/gigflow-be/shared/logger"
)

// env is what every subcommand needs: parsed config, a stderr logger and an open database
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	client *database.Client
}

func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.TimeOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := database.NewClient(cfg.Database.DatabaseClientConfig(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &env{cfg: cfg, log: log, client: client}, nil
}

func (e *env) Close() {
	e.client.Close()
	e.log.Close()
}
