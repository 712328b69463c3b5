package main

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mager/tastebud/codeguard"
	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/handler/auth"
	"github.com/mager/tastebud/handler/health"
	"github.com/mager/tastebud/handler/llm"
	"github.com/mager/tastebud/handler/playlist"
	"github.com/mager/tastebud/handler/userdata"
	"github.com/mager/tastebud/logger"
	"github.com/mager/tastebud/narrative"
	"github.com/mager/tastebud/spotify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string

	// Method reports the HTTP method this route answers.
	Method() string
}

//	@title			Tastebud
//	@version		1.0
//	@description	Spotify listening data, taste analyses and mood playlists

// @host		localhost:8080
// @BasePath	/
func main() {
	fx.New(
		fx.WithLogger(logger.ProvideFxLogger),
		app(),
	).Run()
}

// app is the dependency graph of the server.
func app() fx.Option {
	return fx.Options(
		fx.Provide(NewHTTPServer,
			config.Options,
			logger.Options,
			spotify.Options,
			codeguard.Options,
			narrative.Options,

			AsRoute(health.NewHealthHandler),

			AsRoute(auth.NewLoginHandler),
			AsRoute(auth.NewCallbackHandler),
			AsRoute(auth.NewRefreshHandler),
			AsRoute(auth.NewValidateTokenHandler),

			AsRoute(userdata.NewTopTracksHandler),
			AsRoute(userdata.NewTopArtistsHandler),
			AsRoute(userdata.NewRecentlyPlayedHandler),
			AsRoute(userdata.NewAudioFeaturesHandler),
			AsRoute(userdata.NewProfileHandler),

			AsRoute(playlist.NewCreateHandler),
			AsRoute(playlist.NewAddTracksHandler),

			AsRoute(llm.NewAnalyzeTasteHandler),
			AsRoute(llm.NewMoodPlaylistHandler),
			AsRoute(llm.NewSearchTracksHandler),
		),
		fx.Invoke(func(*http.Server) {}),
	)
}

type ServerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.SugaredLogger
	Routes    []Route `group:"routes"`
}

func NewHTTPServer(p ServerParams) *http.Server {
	srv := &http.Server{
		Addr:    ":" + p.Config.Port,
		Handler: newRouter(p.Config, p.Log, p.Routes),
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			p.Log.Infow("Starting HTTP server", "addr", srv.Addr, "routes", len(p.Routes))
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

func newRouter(cfg config.Config, log *zap.SugaredLogger, routes []Route) *mux.Router {
	r := mux.NewRouter()
	r.Use(
		requestLogMiddleware(log),
		corsMiddleware(cfg.ClientURL),
		jsonMiddleware,
	)

	// Define handlers
	for _, route := range routes {
		r.Handle(route.Pattern(), route).Methods(route.Method(), http.MethodOptions)
	}
	return r
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}
