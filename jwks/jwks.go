package jwks

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SetupJWKS retrieves JWKS from the auth0 domain and keeps it refreshed in
// the background. The returned URL is the refresh key for later fetches.
func SetupJWKS() (*jwk.AutoRefresh, string) {
	// read remote JWKS
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", viper.GetString("auth0.domain"))

	log.Debug().Str("Url", jwksURL).Msg("reading JWKS")

	ar := jwk.NewAutoRefresh(context.Background())
	ar.Configure(jwksURL)
	if _, err := ar.Fetch(context.Background(), jwksURL); err != nil {
		log.Warn().Err(err).Str("Url", jwksURL).Msg("initial JWKS fetch failed")
	}

	return ar, jwksURL
}
