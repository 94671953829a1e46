package config

import "time"

// Integrations lists the optional backends around the engine.  An empty
// URL or endpoint leaves that backend disabled.
type Integrations struct {
	// EntropySeed keys the oracle index generator.  Empty means a fresh
	// timestamp seed on every start.
	EntropySeed string

	BadgerDir string

	AMQPURL string

	NATSURL           string
	NATSSubjectPrefix string

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// ArchiveEvery uploads one snapshot per this many transitions.
	ArchiveEvery uint64

	RelayEnabled bool
	RelayOracles int
	RelayLabel   string
	RelayWorkers int
	RelaySeed    uint64
	RelayBuffer  int

	ShutdownTimeout time.Duration
}

func LoadIntegrations() Integrations {
	return Integrations{
		EntropySeed: envStr("ORACLE_ENTROPY_SEED", ""),
		BadgerDir:   envStr("BADGER_DIR", "data/badger"),
		AMQPURL:     envStr("AMQP_URL", ""),

		NATSURL:           envStr("NATS_URL", ""),
		NATSSubjectPrefix: envStr("NATS_SUBJECT_PREFIX", "surety"),

		InfluxURL:    envStr("INFLUX_URL", ""),
		InfluxToken:  envStr("INFLUX_TOKEN", ""),
		InfluxOrg:    envStr("INFLUX_ORG", "flightsurety"),
		InfluxBucket: envStr("INFLUX_BUCKET", "surety"),

		MinioEndpoint:  envStr("MINIO_ENDPOINT", ""),
		MinioAccessKey: envStr("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: envStr("MINIO_SECRET_KEY", ""),
		MinioBucket:    envStr("MINIO_BUCKET", "surety-snapshots"),
		MinioUseSSL:    envBool("MINIO_USE_SSL", false),
		ArchiveEvery:   uint64(envInt("ARCHIVE_EVERY", 100)),

		RelayEnabled: envBool("RELAY_ENABLED", true),
		RelayOracles: envInt("RELAY_ORACLES", 20),
		RelayLabel:   envStr("RELAY_LABEL", "oracle"),
		RelayWorkers: envInt("RELAY_WORKERS", 4),
		RelaySeed:    uint64(envInt("RELAY_SEED", 1)),
		RelayBuffer:  envInt("RELAY_BUFFER", 64),

		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}
