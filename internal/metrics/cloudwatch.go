package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "GeminiGateway/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordTokenUsage records provider token usage
func (m *Client) RecordTokenUsage(model string, totalTokens, inputTokens, outputTokens int) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Model"),
				Value: aws.String(model),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		totalFloat := float64(totalTokens)
		if err := m.putMetric(ctx, "Tokens/Total", totalFloat, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Tokens/Total metric: %v", err)
		}

		inputFloat := float64(inputTokens)
		if err := m.putMetric(ctx, "Tokens/Input", inputFloat, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Tokens/Input metric: %v", err)
		}

		outputFloat := float64(outputTokens)
		if err := m.putMetric(ctx, "Tokens/Output", outputFloat, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Tokens/Output metric: %v", err)
		}
	}()
}

// RecordOutcome counts generation outcomes (generated, moderated, empty)
func (m *Client) RecordOutcome(outcome string) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Outcome"),
				Value: aws.String(outcome),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, "GenerationOutcomes", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record GenerationOutcomes metric: %v", err)
		}
	}()
}

// RecordGenerationDuration records generation request duration
func (m *Client) RecordGenerationDuration(duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Success"),
				Value: aws.String(boolToString(success)),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "GenerationDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record GenerationDuration metric: %v", err)
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	// Create context with timeout for CloudWatch call
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
