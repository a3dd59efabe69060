package config

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the slice of the SSM client the loader needs.
type ssmAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMConfigLoader overlays secrets from SSM Parameter Store onto a Config
type SSMConfigLoader struct {
	client ssmAPI
	prefix string
}

// NewSSMConfigLoader creates a new SSM configuration loader
func NewSSMConfigLoader(ctx context.Context, prefix, region string) (*SSMConfigLoader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &SSMConfigLoader{
		client: ssm.NewFromConfig(cfg),
		prefix: strings.TrimRight(prefix, "/"),
	}, nil
}

// Overlay fetches the credential parameters under the prefix and writes any
// that exist into cfg. Parameters that are absent leave cfg untouched.
func (s *SSMConfigLoader) Overlay(ctx context.Context, cfg *Config) error {
	targets := map[string]*string{
		s.prefix + "/instagram/access_token": &cfg.Instagram.AccessToken,
		s.prefix + "/instagram/account_id":   &cfg.Instagram.AccountID,
		s.prefix + "/gemini/api_key":         &cfg.Caption.APIKey,
		s.prefix + "/bluesky/app_password":   &cfg.Bluesky.AppPassword,
	}

	parameterNames := make([]string, 0, len(targets))
	for name := range targets {
		parameterNames = append(parameterNames, name)
	}

	result, err := s.client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          parameterNames,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return &ConfigError{Message: "Failed to read SSM parameters under " + s.prefix + ": " + err.Error()}
	}

	for _, param := range result.Parameters {
		if param.Name == nil || param.Value == nil || *param.Value == "" {
			continue
		}
		if dst, ok := targets[*param.Name]; ok {
			*dst = *param.Value
		}
	}

	if len(result.InvalidParameters) == len(parameterNames) {
		return &ConfigError{
			Message: "No parameters found under " + s.prefix,
			Details: result.InvalidParameters,
		}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Message string
	Details []string
}

func (e *ConfigError) Error() string {
	if len(e.Details) > 0 {
		return e.Message + ": " + strconv.Itoa(len(e.Details)) + " invalid parameters"
	}
	return e.Message
}
