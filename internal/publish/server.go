package publish

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultPort matches the port the report viewer has always used.
const DefaultPort = 8000

const shutdownTimeout = 5 * time.Second

//go:embed viewer.html
var viewerHTML string

var viewer = template.Must(template.New("viewer").Parse(viewerHTML))

// Server publishes a report file and the viewer page that renders it.
type Server struct {
	fs     afero.Fs
	dir    string
	report string
	port   int
	log    zerolog.Logger

	addr string
}

// NewServer serves the directory holding reportPath. port 0 picks a free port.
func NewServer(fs afero.Fs, reportPath string, port int, log zerolog.Logger) *Server {
	return &Server{
		fs:     fs,
		dir:    filepath.Dir(reportPath),
		report: filepath.Base(reportPath),
		port:   port,
		log:    log,
	}
}

// Handler routes "/" to the viewer and everything else to the report directory.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveViewer)
	mux.Handle("GET /", http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir)))
	return mux
}

func (s *Server) serveViewer(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := viewer.Execute(&buf, struct{ Report string }{Report: s.report})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render viewer")
		http.Error(w, "failed to render viewer", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// URL is the viewer address once Serve is listening.
func (s *Server) URL() string {
	return "http://" + s.addr + "/"
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
// ready, when non-nil, is called once the listener is bound.
func (s *Server) Serve(ctx context.Context, ready func(url string)) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(s.port)))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", s.port)
	}
	s.addr = net.JoinHostPort("localhost", strconv.Itoa(ln.Addr().(*net.TCPAddr).Port))

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info().Str("url", s.URL()).Str("report", s.report).Msg("serving report")
	if ready != nil {
		ready(s.URL())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down server")
	}
	s.log.Info().Msg("server stopped")
	return nil
}
