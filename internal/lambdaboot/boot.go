// Package lambdaboot holds the cold-start helpers for the Lambda entry point:
// AWS config, the default oracle credential from SSM, and startup logging.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/brushline/internal/logging"
)

// DefaultAPIKeyParam is the SSM parameter read when BRUSHLINE_SSM_API_KEY_PARAM
// is unset.
const DefaultAPIKeyParam = "/brushline/prod/openai-api-key"

// ParameterGetter is the subset of the SSM client LoadAPIKey needs.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// AWSClients holds the AWS config and the SSM client.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Fatals when it cannot.
func InitAWS(ctx context.Context) AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// APIKeyParam returns the SSM parameter holding the default credential.
func APIKeyParam() string {
	return logging.EnvOrDefault("BRUSHLINE_SSM_API_KEY_PARAM", DefaultAPIKeyParam)
}

// LoadAPIKey returns current when it is set, otherwise the decrypted value
// of APIKeyParam. A missing parameter is an error; callers decide whether
// running without a default credential is acceptable.
func LoadAPIKey(ctx context.Context, getter ParameterGetter, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	paramName := APIKeyParam()

	start := time.Now()
	result, err := getter.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read %s from SSM: %w", paramName, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("API key loaded from SSM")
	return aws.ToString(result.Parameter.Value), nil
}

// StartupLog starts a startup logger carrying the init duration.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

// InLambda reports whether the process runs inside AWS Lambda.
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
