package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/api"
	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
)

const serverShutdownTimeout = 10 * time.Second

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the HTTP API until the context is cancelled.
type ServeCmd struct {
	listen string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run the HTTP API" }
func (c *ServeCmd) Usage() string     { return "taskboard serve [--listen <addr>]" }
func (c *ServeCmd) NeedsApp() bool    { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	addr := c.listen
	if addr == "" {
		addr = cfg.Listen
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Sessions issued with a random secret do not survive a restart.
		secret = uuid.NewString()
		log.Warn("jwt.secret is not set, using a random secret")
	}

	e := api.New(api.Deps{
		Boards:   a.Boards,
		OAuth:    a.Tokens,
		Issuer:   session.NewIssuer(secret, cfg.JWTTTL),
		Resolver: session.NewResolver(secret),
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	server := &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	log.WithField("addr", ln.Addr().String()).Info("listening")
	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on %s\n", ln.Addr())
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(errOut, "error: shutdown: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
