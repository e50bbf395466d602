package rpcserver

import (
	"bufio"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lux-run/lux/pkg/config"
	"github.com/lux-run/lux/pkg/runtimestate"
)

const acceptPollInterval = 100 * time.Millisecond

// ExecuteFunc re-invokes the daemon's own binary with the bypass env var
// set, for the /v1/execute command-proxy endpoint.
type ExecuteFunc func(argv []string) (statusCode int, stdout, stderr string, err error)

// StatusFunc reports whether the collector or provider plane is
// currently running — supplied by the caller, who owns the C7 compose
// integration this package does not depend on directly.
type StatusFunc func() (running bool, detail string, err error)

// Deps wires the server to the rest of the supervisor process.
type Deps struct {
	SocketPath string
	PIDPath    string
	SocketGID  int // -1 to leave group ownership untouched

	Config  *config.Document
	LogRoot string
	State   *runtimestate.State

	CollectorStatus StatusFunc
	ProviderStatus  StatusFunc
	Execute         ExecuteFunc

	Logger zerolog.Logger
}

// Server is the supervisor's unix-socket control-plane daemon.
type Server struct {
	deps Deps
	ln   net.Listener
	done chan struct{}
}

// New constructs a Server; call Start to begin serving.
func New(deps Deps) *Server {
	if deps.SocketGID == 0 {
		deps.SocketGID = -1
	}
	return &Server{deps: deps, done: make(chan struct{})}
}

// Start binds the unix socket, writes the PID file, and begins the
// accept loop in a background goroutine. It returns once the socket is
// bound so callers know the daemon is reachable.
func (s *Server) Start() error {
	ln, err := bindUnixSocket(s.deps.SocketPath, s.deps.PIDPath, s.deps.SocketGID)
	if err != nil {
		return err
	}
	if err := writePIDFile(s.deps.PIDPath); err != nil {
		ln.Close()
		return err
	}
	s.ln = ln

	go s.acceptLoop()
	return nil
}

// Stop signals shutdown, closes the listener, and removes the socket and
// PID files (§4.5).
func (s *Server) Stop() {
	s.deps.State.SetShutdown(true)
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.ln != nil {
		s.ln.Close()
	}
	os.Remove(s.deps.SocketPath)
	os.Remove(s.deps.PIDPath)
}

// acceptLoop uses a non-blocking accept with a 100ms poll so it can
// observe the shutdown flag promptly instead of blocking forever in
// Accept (§4.5).
func (s *Server) acceptLoop() {
	unixLn, ok := s.ln.(*net.UnixListener)

	for {
		if s.deps.State.Shutdown() {
			return
		}

		if ok {
			unixLn.SetDeadline(time.Now().Add(acceptPollInterval))
		}

		conn, err := s.ln.Accept()
		if err != nil {
			if ne, isNet := err.(net.Error); isNet && ne.Timeout() {
				continue
			}
			select {
			case <-s.done:
				return
			default:
			}
			if s.deps.State.Shutdown() {
				return
			}
			s.deps.Logger.Warn().Err(err).Msg("rpcserver: accept error")
			continue
		}

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	req, err := readRequest(r)
	if err != nil {
		s.deps.Logger.Debug().Err(err).Msg("rpcserver: malformed request")
		writeJSON(conn, 400, []byte(`{"error":"malformed request"}`))
		return
	}

	s.route(conn, req)
}
