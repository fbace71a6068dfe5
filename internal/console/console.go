// Package console implements the SSH-exposed operator console: a
// read-only live view of the compositor's outputs, seats, and
// selection/drag state, with one gated mutating action (force-cancel a
// stuck grab).
package console

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	tea "github.com/charmbracelet/bubbletea"
	gossh "golang.org/x/crypto/ssh"

	"github.com/wlcore/wlcore/internal/compositor"
	"github.com/wlcore/wlcore/internal/logger"
)

// Server is the SSH operator console. One server is bound to one
// compositor and one seat name; multi-seat embedders run one console
// per seat.
type Server struct {
	listenAddress      string
	port               int
	hostKeyPath        string
	authorizedKeysPath string
	allowMutations     bool
	maxSessions        int

	compositor *compositor.Compositor
	seatName   string

	sshServer *ssh.Server

	mu       sync.Mutex
	sessions map[string]struct{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a console server. authorizedKeysPath, if non-empty,
// restricts connections to the keys it lists; an empty path accepts any
// key. maxSessions caps concurrent connections; 0 means unlimited.
func NewServer(listenAddress string, port int, hostKeyPath, authorizedKeysPath string, allowMutations bool, maxSessions int, c *compositor.Compositor, seatName string) *Server {
	return &Server{
		listenAddress:      listenAddress,
		port:               port,
		hostKeyPath:        hostKeyPath,
		authorizedKeysPath: authorizedKeysPath,
		allowMutations:     allowMutations,
		maxSessions:        maxSessions,
		compositor:         c,
		seatName:           seatName,
		sessions:           make(map[string]struct{}),
		stop:               make(chan struct{}),
	}
}

// Start begins listening for SSH connections.
func (s *Server) Start(ctx context.Context) error {
	server, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", s.listenAddress, s.port)),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			s.loggingMiddleware(),
			activeterm.Middleware(),
			s.sessionHandler(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create console SSH server: %w", err)
	}
	s.sshServer = server

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Infof("operator console listening on %s:%d", s.listenAddress, s.port)
		if err := server.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			logger.Errorf("console SSH server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop shuts down the console server.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.sshServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.sshServer.Shutdown(shutdownCtx)
		}
		s.wg.Wait()
	})
}

// publicKeyAuth accepts any key when no authorized_keys file is
// configured, otherwise requires an exact match against one of its
// entries.
func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	if s.authorizedKeysPath == "" {
		logger.Warnf("console accepting SSH key without an authorized_keys file (addr=%s)", remoteAddr(ctx))
		return true
	}

	data, err := os.ReadFile(s.authorizedKeysPath)
	if err != nil {
		logger.Errorf("failed to read console authorized_keys file: %v", err)
		return false
	}

	for len(data) > 0 {
		allowed, _, _, rest, err := gossh.ParseAuthorizedKey(data)
		if err != nil {
			break
		}
		data = rest
		if ssh.KeysEqual(key, allowed) {
			return true
		}
	}

	logger.Infof("console denied SSH key fingerprint=%s addr=%s", gossh.FingerprintSHA256(key), remoteAddr(ctx))
	return false
}

func remoteAddr(ctx ssh.Context) string {
	if ctx == nil {
		return "unknown"
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) loggingMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			addr := sess.RemoteAddr().String()
			logger.Debugf("console session started addr=%s", addr)
			h(sess)
			logger.Debugf("console session ended addr=%s", addr)
		}
	}
}

// sessionHandler runs the bubbletea introspection view for one
// session, pausing it to run a huh confirmation form whenever the
// operator requests a force-cancel.
func (s *Server) sessionHandler() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			s.mu.Lock()
			if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
				s.mu.Unlock()
				logger.Infof("console rejecting session - max sessions reached addr=%s", sess.RemoteAddr())
				if err := sess.Exit(1); err != nil {
					logger.Errorf("failed to exit console session: %v", err)
				}
				if err := sess.Close(); err != nil {
					logger.Errorf("failed to close console session: %v", err)
				}
				return
			}
			s.sessions[sess.Context().SessionID()] = struct{}{}
			s.mu.Unlock()
			defer func() {
				s.mu.Lock()
				delete(s.sessions, sess.Context().SessionID())
				s.mu.Unlock()
			}()

			pty, _, ok := sess.Pty()
			width, height := 80, 24
			if ok {
				width, height = pty.Window.Width, pty.Window.Height
			}

			m := newModel(s.compositor, s.seatName, s.allowMutations, width, height)
			for {
				program := tea.NewProgram(m, tea.WithInput(sess), tea.WithOutput(sess))
				finalModel, err := program.Run()
				if err != nil {
					logger.Errorf("console session error: %v", err)
					return
				}
				fm := finalModel.(*model)
				if !fm.quitting {
					return
				}
				if fm.pendingCancelKind == "" {
					return
				}

				confirmed := confirmForceCancelGrab(sess, fm.pendingCancelKind)
				if confirmed {
					switch fm.pendingCancelKind {
					case "pointer":
						s.compositor.Seat.ForceCancelPointerGrab()
					case "keyboard":
						s.compositor.Seat.ForceCancelKeyboardGrab()
					}
				}
				m = newModel(s.compositor, s.seatName, s.allowMutations, width, height)
			}
		}
	}
}
