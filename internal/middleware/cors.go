package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"go-driveway/internal/apiclient"
)

func CORS(origins []string) func(http.Handler) http.Handler {
	credentials := true
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	for _, origin := range origins {
		// browsers reject credentialed responses for a wildcard origin
		if origin == "*" {
			credentials = false
		}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID", apiclient.DefaultXSRFHeaderName},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: credentials,
	})

	return handler.Handler
}
