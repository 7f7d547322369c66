package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"mindtrackserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth      *service.AuthService
	Verify    *service.VerificationService
	Profile   *service.ProfileService
	Mailer    *service.VerificationMailer
	PublicURL *url.URL
	UploadDir string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "data/profile_pictures"
	}

	api := &api{
		logger:     logger,
		isProd:     opts.IsProd,
		dbPing:     opts.DBPing,
		authSvc:    opts.Auth,
		verifySvc:  opts.Verify,
		profileSvc: opts.Profile,
		mailer:     opts.Mailer,
		publicURL:  opts.PublicURL,
		uploadDir:  opts.UploadDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		mux.HandleFunc("POST /register", handleNotImplemented)
		mux.HandleFunc("POST /login", handleNotImplemented)
		mux.HandleFunc("POST /token/refresh", handleNotImplemented)
		mux.HandleFunc("GET /profile", handleNotImplemented)
		mux.HandleFunc("PUT /profile", handleNotImplemented)
		mux.HandleFunc("GET /verify-email/{token}", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /register", api.handleRegister)
		mux.HandleFunc("POST /login", api.handleLogin)
		mux.HandleFunc("POST /token/refresh", api.handleTokenRefresh)
		if api.verifySvc != nil {
			mux.HandleFunc("GET /verify-email/{token}", api.handleVerifyEmail)
		}
		if api.profileSvc != nil {
			mux.HandleFunc("GET /profile", api.requireAuth(api.handleProfileGet))
			mux.HandleFunc("PUT /profile", api.requireAuth(api.handleProfileUpdate))
		}
		mux.Handle("GET /media/profile_pictures/", http.StripPrefix("/media/profile_pictures/",
			http.FileServer(http.Dir(api.uploadDir))))
	}

	var h http.Handler = mux
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc    *service.AuthService
	verifySvc  *service.VerificationService
	profileSvc *service.ProfileService
	mailer     *service.VerificationMailer
	publicURL  *url.URL
	uploadDir  string
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
