package trending

import (
	"fmt"

	core "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/components/trending/httpapi"
)

// Service exposes the underlying components/trending.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// StackConfig configures NewStack.
type StackConfig struct {
	Options    Options
	PageTitle  string
	EventsPath string
	// Templates defaults to the embedded board templates.
	Templates core.Renderer
}

// Stack bundles the pieces a host application mounts: the service, its
// HTML controller, the command executor and the live-update hook.
type Stack struct {
	Service    *Service
	Controller *core.Controller
	Executor   *httpapi.CommandExecutor
	Broadcast  *core.BroadcastHook
	Handlers   *httpapi.Handlers
}

// NewStack builds a service whose events also reach a broadcast hook.
func NewStack(cfg StackConfig) (*Stack, error) {
	broadcast := core.NewBroadcastHook()
	opts := cfg.Options
	if opts.Hook != nil {
		opts.Hook = core.MultiHook{opts.Hook, broadcast}
	} else {
		opts.Hook = broadcast
	}
	templates := cfg.Templates
	if templates == nil {
		var err error
		templates, err = core.NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("trending: template renderer: %w", err)
		}
	}
	service := core.NewService(opts)
	var controllerOpts []core.ControllerOption
	if cfg.PageTitle != "" {
		controllerOpts = append(controllerOpts, core.WithPageTitle(cfg.PageTitle))
	}
	if cfg.EventsPath != "" {
		controllerOpts = append(controllerOpts, core.WithEventsPath(cfg.EventsPath))
	}
	executor := httpapi.NewCommandExecutor(service, opts.Telemetry)
	return &Stack{
		Service:    service,
		Controller: core.NewController(service, templates, controllerOpts...),
		Executor:   executor,
		Broadcast:  broadcast,
		Handlers:   &httpapi.Handlers{API: executor},
	}, nil
}
