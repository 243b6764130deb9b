// Command brushline-lambda serves the Brushline HTTP API from AWS Lambda
// behind API Gateway (HTTP API, payload v2).
//
// The handler is the same one brushline-web serves. The default oracle
// credential comes from BRUSHLINE_API_KEY or, when unset, the SSM parameter
// named by BRUSHLINE_SSM_API_KEY_PARAM.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/fpang/brushline/internal/auth"
	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/lambdaboot"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/fpang/brushline/internal/server"
	"github.com/rs/zerolog/log"
)

var version = "dev"

// Set at cold start.
var originVerifySecret string

func setup() http.Handler {
	start := time.Now()
	ctx := context.Background()

	cfg, err := cli.LoadConfig("", nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	clients := lambdaboot.InitAWS(ctx)

	apiKey := cfg.Oracle.APIKey
	if apiKey == "" {
		apiKey, _ = auth.GetAPIKey()
	}
	apiKey, err = lambdaboot.LoadAPIKey(ctx, clients.SSM, apiKey)
	if err != nil {
		log.Warn().Err(err).Msg("No default API key. Requests without an apiKey will use fallback responses")
	}

	rt, err := cli.NewRuntime(cfg, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build editor")
	}

	originVerifySecret = os.Getenv("BRUSHLINE_ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("BRUSHLINE_ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	handler := withOriginVerify(server.New(rt.Editor, server.Options{
		FrontendURL: cfg.Server.FrontendURL,
		BodyLimit:   cfg.Server.BodyLimit(),
		Version:     version,
		Environment: "lambda",
	}).Handler())

	lambdaboot.StartupLog("brushline-lambda", start).
		Version(version).
		SSMParam("apiKey", lambdaboot.APIKeyParam()).
		Feature("defaultApiKey", rt.Editor.HasDefaultKey()).
		Feature("originVerify", originVerifySecret != "").
		Feature("emf", metrics.Enabled()).
		Config("provider", cfg.Oracle.Provider).
		Config("model", cfg.Oracle.Model).
		Config("frontendUrl", cfg.Server.FrontendURL).
		Log()
	return handler
}

// withOriginVerify rejects requests without the x-origin-verify header the
// CDN injects, so the API Gateway URL cannot be called directly.
func withOriginVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if originVerifySecret == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("x-origin-verify") != originVerifySecret {
			log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"error":"Forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	adapter := httpadapter.NewV2(setup())
	lambda.Start(adapter.ProxyWithContext)
}
