package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalvas/signfetch/fetch"
	"github.com/vitalvas/signfetch/internal/log"
	"github.com/vitalvas/signfetch/paramsign"
)

// errUnknownToken is returned by the serve key resolver for unknown tokens.
var errUnknownToken = errors.New("unknown token")

// ServerConfig configures the verifying echo server.
type ServerConfig struct {
	// Keys maps tokens to signing keys.
	Keys map[string]string

	// Algorithm is the signature algorithm expected from clients.
	Algorithm paramsign.Algorithm

	// SuccessStatus is written as the envelope status of accepted requests.
	SuccessStatus int

	// MaxAge bounds the request timestamp skew. Zero disables the check.
	MaxAge time.Duration

	IncludeURL  bool
	IncludeUser bool

	Logger *slog.Logger
}

// echo is the body of accepted requests.
type echo struct {
	Method string           `json:"method"`
	Path   string           `json:"path"`
	Token  string           `json:"token"`
	Params paramsign.Params `json:"params"`
}

// NewServerHandler returns a handler that verifies every request and echoes
// its parameters back inside a response envelope.
func NewServerHandler(cfg ServerConfig) (http.Handler, error) {
	if len(cfg.Keys) == 0 {
		return nil, errors.New("at least one token key is required")
	}

	signers := make(map[string]paramsign.Signer, len(cfg.Keys))
	for token, key := range cfg.Keys {
		signer, err := paramsign.NewSigner(cfg.Algorithm, key)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token, err)
		}
		signers[token] = signer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = log.WithComponent(logger, "server")

	successStatus := cfg.SuccessStatus
	if successStatus == 0 {
		successStatus = fetch.DefaultSuccessStatus
	}

	verify, err := paramsign.Middleware(paramsign.MiddlewareConfig{
		Verify: paramsign.VerifyConfig{
			Resolver: func(_ *http.Request, token string) (paramsign.Signer, error) {
				signer, ok := signers[token]
				if !ok {
					return nil, fmt.Errorf("%w: %w", paramsign.ErrSignatureInvalid, errUnknownToken)
				}
				return signer, nil
			},
			MaxAge:      cfg.MaxAge,
			IncludeURL:  cfg.IncludeURL,
			IncludeUser: cfg.IncludeUser,
		},
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("rejected request", "method", r.Method, "path", r.URL.Path, "error", err)
			writeEnvelope(w, http.StatusUnauthorized, fetch.Envelope{
				Status:  http.StatusUnauthorized,
				Message: err.Error(),
			})
		},
	})
	if err != nil {
		return nil, err
	}

	return recoverEnvelope(logger, verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := paramsign.RequestParams(r, paramsign.ContextFields{})
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, fetch.Envelope{Status: http.StatusBadRequest, Message: err.Error()})
			return
		}
		delete(params, paramsign.FieldTimestamp)

		body, err := json.Marshal(echo{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  r.Header.Get(paramsign.HeaderToken),
			Params: params,
		})
		if err != nil {
			writeEnvelope(w, http.StatusInternalServerError, fetch.Envelope{Status: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		logger.Debug("accepted request", "method", r.Method, "path", r.URL.Path)

		writeEnvelope(w, http.StatusOK, fetch.Envelope{Status: successStatus, Body: body})
	}))), nil
}

// recoverEnvelope answers panics in next with a 500 envelope.
func recoverEnvelope(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", err)
				writeEnvelope(w, http.StatusInternalServerError, fetch.Envelope{
					Status:  http.StatusInternalServerError,
					Message: http.StatusText(http.StatusInternalServerError),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, code int, env fetch.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func newServeCommand(opts *options) *cobra.Command {
	var (
		addr   string
		keys   map[string]string
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a server that verifies signed requests and echoes them",
		Long: `Run an HTTP server that verifies the signature headers of every request
and answers with a {status, body, message} envelope echoing the signed
parameters. Useful for testing clients.

The configured auth token and key are accepted in addition to --key pairs.`,
		Example: `  signfetch serve --addr :8080 --key tok=secret`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			all := make(map[string]string, len(keys)+1)
			if cfg.Auth.Token != "" {
				creds, err := cfg.Credentials(cmd.Context())
				if err != nil {
					return err
				}
				all[creds.Token] = creds.SigningKey()
			}
			for token, key := range keys {
				all[token] = key
			}

			logger := commandLogger(cmd, cfg)

			handler, err := NewServerHandler(ServerConfig{
				Keys:          all,
				Algorithm:     cfg.Algorithm,
				SuccessStatus: cfg.SuccessStatus,
				MaxAge:        maxAge,
				IncludeURL:    cfg.IncludeURL,
				IncludeUser:   cfg.IncludeUser,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, addr, handler, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringToStringVar(&keys, "key", nil, "Accepted token=key pair (repeatable)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 5*time.Minute, "Maximum request timestamp skew (0 disables)")

	return cmd
}

// runServer serves handler on addr until ctx is cancelled.
func runServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("server shutting down")

	return srv.Shutdown(shutdownCtx)
}
