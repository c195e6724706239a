package middleware

import (
	"crypto/sha256"
	"net/http"

	"github.com/2beens/gymrank/internal/telemetry/tracing"
	"github.com/2beens/gymrank/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TokenHeader = "X-GYMRANK-TOKEN"

	verifiedTokensCacheSize = 512 * 1024
	verifiedTokenTTLSeconds = 60 * 60
)

// TokenAuth guards the API with a single shared token, stored only as its
// bcrypt hash. A bcrypt check is slow on purpose, so tokens that already
// passed it are remembered (by their sha256) for an hour.
type TokenAuth struct {
	tokenHash      string
	verifiedTokens *freecache.Cache
	publicPaths    map[string]bool
}

// NewTokenAuth returns a guard; with an empty hash every request passes,
// which is what a single user on localhost wants.
func NewTokenAuth(tokenHash string, publicPaths ...string) *TokenAuth {
	a := &TokenAuth{
		tokenHash:      tokenHash,
		verifiedTokens: freecache.NewCache(verifiedTokensCacheSize),
		publicPaths:    make(map[string]bool, len(publicPaths)),
	}
	for _, p := range publicPaths {
		a.publicPaths[p] = true
	}
	return a
}

func (a *TokenAuth) Enabled() bool {
	return a.tokenHash != ""
}

func (a *TokenAuth) isValid(token string) bool {
	if token == "" {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	if _, err := a.verifiedTokens.Get(sum[:]); err == nil {
		return true
	}
	if !pkg.CheckPasswordHash(token, a.tokenHash) {
		return false
	}
	if err := a.verifiedTokens.Set(sum[:], []byte{1}, verifiedTokenTTLSeconds); err != nil {
		log.Warnf("auth: cache verified token: %s", err)
	}
	return true
}

func (a *TokenAuth) Check() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() || r.Method == http.MethodOptions || a.publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			span.SetAttributes(attribute.String("path", r.URL.Path))
			valid := a.isValid(r.Header.Get(TokenHeader))
			if !valid {
				span.SetStatus(codes.Error, "unauthorized")
				span.End()
				log.Debugf("auth: unauthorized request [%s] %s", r.Method, r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}
			span.SetStatus(codes.Ok, "authorized")
			span.End()

			next.ServeHTTP(w, r)
		})
	}
}
