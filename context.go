package arbor

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Context carries the runtime's shared services: configuration, the logger,
// and the scene source. It is passed explicitly into constructors; there is
// no package-level engine state. A Context must be initialized with Init
// before trees or loaders are built from it, and Shutdown marks the end of
// its life.
type Context struct {
	cfg    Config
	logger zerolog.Logger
	source SceneSource

	initialized bool
	shutdown    bool
}

// NewContext creates a Context with the given config. Zero-valued config
// fields are replaced by defaults. Logging goes to stderr at the configured
// level; use SetLogOutput or SetLogger to redirect it.
func NewContext(cfg Config) *Context {
	cfg.fillDefaults()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return &Context{cfg: cfg, logger: logger}
}

// Init marks the context ready for use. Returns a LifecycleError if the
// context has already been shut down.
func (c *Context) Init() error {
	if c.shutdown {
		return &LifecycleError{Op: "Init", Msg: "context already shut down"}
	}
	c.initialized = true
	c.logger.Debug().Msg("context initialized")
	return nil
}

// Shutdown marks the context as terminated. Trees and loaders built from it
// refuse further work.
func (c *Context) Shutdown() {
	c.shutdown = true
	c.initialized = false
	c.logger.Debug().Msg("context shut down")
}

// Config returns the context's resolved configuration.
func (c *Context) Config() Config { return c.cfg }

// Logger returns the context's logger.
func (c *Context) Logger() *zerolog.Logger { return &c.logger }

// SetLogger replaces the context's logger.
func (c *Context) SetLogger(l zerolog.Logger) { c.logger = l }

// SetLogOutput redirects log output, keeping the configured level.
func (c *Context) SetLogOutput(w io.Writer) {
	c.logger = c.logger.Output(w)
}

// SetSceneSource sets the source scene files are loaded from.
func (c *Context) SetSceneSource(s SceneSource) { c.source = s }

// ready reports whether the context can serve runtime operations.
func (c *Context) ready() bool { return c.initialized && !c.shutdown }
