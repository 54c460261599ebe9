package api

import (
	"net/http"

	"github.com/rs/cors"
)

const corsMaxAge = 600

// corsPolicy allows every origin, method and header. Credentials are
// allowed, so the request Origin is echoed instead of "*".
var corsPolicy = cors.New(cors.Options{
	AllowOriginFunc: func(string) bool { return true },
	AllowedMethods: []string{
		http.MethodDelete, http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPatch, http.MethodPost, http.MethodPut,
	},
	AllowedHeaders:       []string{"*"},
	AllowCredentials:     true,
	MaxAge:               corsMaxAge,
	OptionsSuccessStatus: http.StatusOK,
})

// CORS applies the allow-all policy to next. Preflight requests are answered
// directly and never reach next.
func CORS(next http.Handler) http.Handler {
	return corsPolicy.Handler(next)
}
