package app

import (
	"log/slog"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/taudem"
)

// Application holds the dependencies shared by the tools, the HTTP handlers
// and their middleware. It is built once per process and passed explicitly;
// nothing reads a workspace from global state.
type Application struct {
	Config    appconf.Config
	Tools     ToolConfig
	Logger    *slog.Logger
	Workspace *fgdb.Client
	TauDEM    *taudem.Runner
}

// New opens the workspace at cfg.Workspace and wires the external runners.
func New(cfg FileConfig, env appconf.Environment, logger *slog.Logger) (*Application, error) {
	client, err := fgdb.NewClient(fgdb.NewConfig(cfg.Workspace, env, cfg.Log.Level == "debug"))
	if err != nil {
		return nil, err
	}
	return &Application{
		Config: appconf.Config{
			Port:      cfg.Server.Port,
			Env:       env,
			ApiKeys:   cfg.Server.ApiKeys,
			RateLimit: cfg.Server.RateLimit,
		},
		Tools:     cfg.Tools,
		Logger:    logger,
		Workspace: client,
		TauDEM:    taudem.NewRunner(cfg.TauDEM.MPIExec, cfg.TauDEM.GDALTranslate, cfg.TauDEM.Processes),
	}, nil
}

// Close releases the workspace.
func (app *Application) Close() error {
	if app.Workspace == nil {
		return nil
	}
	return app.Workspace.Close()
}
