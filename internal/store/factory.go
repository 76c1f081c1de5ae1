package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Options selects and configures a backend.
type Options struct {
	Driver string

	SupabaseURL        string
	SupabaseServiceKey string

	DynamoDBTable    string
	DynamoDBRegion   string
	DynamoDBEndpoint string

	SQLitePath string
}

// SupportedDrivers lists the values Options.Driver accepts.
func SupportedDrivers() []string {
	return []string{DriverMemory, DriverSupabase, DriverDynamoDB, DriverSQLite}
}

// Open creates the backend named by opts.Driver. An empty driver means memory.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("store_driver", opts.Driver))

	switch opts.Driver {
	case "", DriverMemory:
		logger.Info("using in-memory store")
		return NewMemoryStore(), nil

	case DriverSupabase:
		if opts.SupabaseURL == "" || opts.SupabaseServiceKey == "" {
			return nil, fmt.Errorf("supabase store requires url and service key")
		}
		return NewSupabaseStore(opts.SupabaseURL, opts.SupabaseServiceKey, logger)

	case DriverDynamoDB:
		if opts.DynamoDBTable == "" {
			return nil, fmt.Errorf("dynamodb store requires a table name")
		}
		client, err := newDynamoDBClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewDynamoDBStore(client, opts.DynamoDBTable, logger), nil

	case DriverSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		return OpenSQLite(opts.SQLitePath, logger)

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

func newDynamoDBClient(ctx context.Context, opts Options) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.DynamoDBRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.DynamoDBRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.DynamoDBEndpoint)
		}
	}), nil
}
