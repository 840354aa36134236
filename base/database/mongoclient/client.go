// Package mongoclient connects the mongo store of auctions, bids and tracker checkpoints.
package mongoclient

import (
	"context"
	"crypto/tls"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/x-xyz/keeper/base/log"
)

const (
	socketTimeout  = time.Minute
	connectTimeout = 10 * time.Second
)

// Client is a mongo.Client bound to one database.
type Client struct {
	*mongo.Client
	DbName string
}

type Config struct {
	Uri string
	// AuthDBName is the auth source when the uri carries credentials but no authSource.
	AuthDBName string
	DbName     string
	EnableSSL  bool
	// SetSafe waits for a majority of the replica set on writes. Settlement records
	// must survive a primary failover.
	SetSafe bool
	// PoolSizeMultiplier sizes the pool per cpu, split across hosts. 0 keeps the driver default.
	PoolSizeMultiplier float64
}

func MustConnectMongoClient(ctx context.Context, cfg Config) *Client {
	cli, err := ConnectMongoClient(ctx, cfg)
	if err != nil {
		log.Log().WithFields(log.Fields{"dbName": cfg.DbName, "err": err}).Panic("mongo connect failed")
	}
	return cli
}

// clientOptions turns cfg into driver options. It also returns the hosts for logging.
func clientOptions(cfg Config, cpus int) (*options.ClientOptions, []string, error) {
	cs, err := connstring.ParseAndValidate(cfg.Uri)
	if err != nil {
		return nil, nil, err
	}
	opts := options.Client().
		ApplyURI(cfg.Uri).
		SetSocketTimeout(socketTimeout).
		SetConnectTimeout(connectTimeout).
		SetRetryWrites(true)

	if cs.Username != "" && cs.AuthSource == "" && cfg.AuthDBName != "" {
		opts.SetAuth(options.Credential{
			AuthMechanism:           cs.AuthMechanism,
			AuthMechanismProperties: cs.AuthMechanismProperties,
			Username:                cs.Username,
			Password:                cs.Password,
			PasswordSet:             cs.PasswordSet,
			AuthSource:              cfg.AuthDBName,
		})
	}
	if hosts := len(cs.Hosts); cfg.PoolSizeMultiplier > 0 && hosts > 0 {
		// every host keeps its own pool
		perHost := (int(float64(cpus)*cfg.PoolSizeMultiplier) + hosts - 1) / hosts
		opts.SetMaxPoolSize(uint64(perHost)).SetMinPoolSize(uint64(perHost / 4))
	}
	if cfg.EnableSSL {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if cfg.SetSafe {
		opts.SetWriteConcern(writeconcern.Majority())
	}
	return opts, cs.Hosts, nil
}

// ConnectMongoClient connects and lists the collections of cfg.DbName, so bad
// credentials or a wrong database fail at startup rather than on the first write.
func ConnectMongoClient(ctx context.Context, cfg Config) (*Client, error) {
	logger := log.Log().WithField("dbName", cfg.DbName)
	opts, hosts, err := clientOptions(cfg, runtime.NumCPU())
	if err != nil {
		logger.WithField("err", err).Error("bad mongo uri")
		return nil, err
	}
	logger = logger.WithField("hosts", hosts)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.WithField("err", err).Error("mongo.Connect failed")
		return nil, err
	}
	if _, err := client.Database(cfg.DbName).ListCollectionNames(ctx, bson.D{}); err != nil {
		logger.WithField("err", err).Error("mongo database check failed")
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo connected")
	return &Client{Client: client, DbName: cfg.DbName}, nil
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}
