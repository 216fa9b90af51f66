package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/simwire/simwire/internal/bus/config"
)

var (
	AWSDefaultConfigLoader  = awsconfig.LoadDefaultConfig
	SNSTopicResolverFactory = sns.NewGenerateArnTopicResolver
	SNSPublisherFactory     = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return sns.NewPublisher(cfg, logger)
	}
	SNSSubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return sns.NewSubscriber(cfg, sqsCfg, logger)
	}
)

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

func awsTransport(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	cfg, err := createAWSConfig(ctx, conf, logger)
	if err != nil {
		return Transport{}, err
	}
	logger.Info("AWS config loaded", watermill.LogFields{
		"region":          safeAWSRegion(cfg),
		"custom_endpoint": hasCustomEndpoint(cfg),
	})

	publisher, err := createAwsPublisher(conf, logger, cfg)
	if err != nil {
		return Transport{}, err
	}
	subscriber, err := createAwsSubscriber(conf, logger, cfg)
	if err != nil {
		return Transport{}, err
	}
	return Transport{Publisher: publisher, Subscriber: subscriber}, nil
}

func createAWSConfig(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (*aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if conf != nil {
		if conf.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(conf.AWSRegion))
		}
		if conf.AWSAccessKeyID != "" && conf.AWSSecretAccessKey != "" {
			logger.Info("Using static AWS credentials", nil)
			opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(conf.AWSAccessKeyID, conf.AWSSecretAccessKey)))
		}
	}

	cfg, err := AWSDefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS default config", err, nil)
		return nil, err
	}
	// Ensure region is set even if the loader ignores options (e.g. in tests)
	if conf != nil && conf.AWSRegion != "" {
		cfg.Region = conf.AWSRegion
	}

	return &cfg, nil
}

func createAwsPublisher(conf *config.Config, logger watermill.LoggerAdapter, cfg *aws.Config) (message.Publisher, error) {
	accountID, region := resolveAccountAndRegion(conf, logger, safeAWSRegion(cfg))

	topicResolver, err := createTopicResolver(accountID, region, logger)
	if err != nil {
		return nil, err
	}

	publisherConfig := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     *cfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}

	if endpoint, err := awsEndpointURL(conf); err != nil {
		return nil, err
	} else if endpoint != nil {
		endpointStr := endpoint.String()
		publisherConfig.OptFns = []func(*amazonsns.Options){
			func(o *amazonsns.Options) {
				o.BaseEndpoint = aws.String(endpointStr)
			},
		}
	}

	return SNSPublisherFactory(publisherConfig, logger)
}

func createAwsSubscriber(conf *config.Config, logger watermill.LoggerAdapter, cfg *aws.Config) (message.Subscriber, error) {
	accountID, region := resolveAccountAndRegion(conf, logger, safeAWSRegion(cfg))
	topicResolver, err := createTopicResolver(accountID, region, logger)
	if err != nil {
		return nil, err
	}

	snsOpts, sqsOpts, err := endpointResolverOpts(conf, cfg)
	if err != nil {
		return nil, err
	}

	subscriberConfig := sns.SubscriberConfig{
		AWSConfig: aws.Config{
			Credentials: aws.AnonymousCredentials{},
		},
		OptFns:               snsOpts,
		TopicResolver:        topicResolver,
		GenerateSqsQueueName: makeSqsQueueNameGenerator(coreQueueName(conf)),
	}

	return SNSSubscriberFactory(
		subscriberConfig,
		sqs.SubscriberConfig{
			AWSConfig: *cfg,
			OptFns:    sqsOpts,
		},
		logger,
	)
}

func coreQueueName(conf *config.Config) string {
	if conf != nil && conf.CoreName != "" {
		return conf.CoreName
	}
	return "core"
}

// makeSqsQueueNameGenerator derives the SQS queue name from the SNS topic
// plus the core name, so every core in a federation drains its own queue.
func makeSqsQueueNameGenerator(coreName string) func(context.Context, sns.TopicArn) (string, error) {
	return func(ctx context.Context, arn sns.TopicArn) (string, error) {
		topic, err := sns.ExtractTopicNameFromTopicArn(arn)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v-%v", topic, coreName), nil
	}
}

func endpointResolverOpts(conf *config.Config, cfg *aws.Config) ([]func(*amazonsns.Options), []func(*amazonsqs.Options), error) {
	if !hasCustomEndpoint(cfg) {
		return nil, nil, nil
	}
	parsedURL, err := url.Parse(*cfg.BaseEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse BaseEndpoint: %w", err)
	}
	snsOpts := []func(*amazonsns.Options){
		amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{
				URI: *parsedURL,
			},
		}),
	}
	sqsOpts := []func(*amazonsqs.Options){
		amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{
				URI: *parsedURL,
			},
		}),
	}
	return snsOpts, sqsOpts, nil
}

// resolveAccountAndRegion cleans up the configured account ID and fills in
// the region from the loaded AWS config when the bus config leaves it empty.
// Against a custom endpoint (LocalStack), a missing or malformed account ID
// falls back to the LocalStack default account.
func resolveAccountAndRegion(conf *config.Config, logger watermill.LoggerAdapter, fallbackRegion string) (string, string) {
	if conf == nil {
		return "", fallbackRegion
	}

	region := conf.AWSRegion
	if region == "" {
		region = fallbackRegion
	}

	accountID := strings.Trim(conf.AWSAccountID, "\"' ")
	if useLocalstackEndpoint(conf) && len(accountID) != awsAccountIDLength {
		if accountID != "" {
			logger.Info("Malformed AWS account ID, substituting LocalStack default", watermill.LogFields{"accountID": accountID})
		}
		accountID = localstackAccountID
	}

	return accountID, region
}

func useLocalstackEndpoint(conf *config.Config) bool {
	return conf != nil && conf.AWSEndpoint != ""
}

func createTopicResolver(accountID, region string, logger watermill.LoggerAdapter) (sns.TopicResolver, error) {
	r, err := SNSTopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("SNS topic resolver", err, watermill.LogFields{"accountID": accountID, "region": region})
		return nil, err
	}
	return r, nil
}

// awsEndpointURL returns the configured custom endpoint, or nil when the
// config points at real AWS.
func awsEndpointURL(conf *config.Config) (*url.URL, error) {
	if conf == nil || conf.AWSEndpoint == "" {
		return nil, nil
	}
	u, err := url.Parse(conf.AWSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse AWS endpoint: %w", err)
	}
	return u, nil
}

func safeAWSRegion(cfg *aws.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Region
}

func hasCustomEndpoint(cfg *aws.Config) bool {
	return cfg != nil && cfg.BaseEndpoint != nil && *cfg.BaseEndpoint != ""
}

func staticCredentialsProvider(key, secret string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: key, SecretAccessKey: secret}, nil
	})
}
