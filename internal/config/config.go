package config

import "time"

type Config struct {
	DataIngestion  DataIngestionConfig  `koanf:"data_ingestion"`
	DataProcessing DataProcessingConfig `koanf:"data_processing"`
	Paths          PathsConfig          `koanf:"paths"`
	Storage        StorageConfig        `koanf:"storage"`
	Tracking       TrackingConfig       `koanf:"tracking"`
	Serving        ServingConfig        `koanf:"serving"`
	Logging        LoggingConfig        `koanf:"logging"`
}

type DataIngestionConfig struct {
	BucketName     string  `koanf:"bucket_name" validate:"required"`
	BucketFileName string  `koanf:"bucket_file_name" validate:"required"`
	TrainRatio     float64 `koanf:"train_ratio" validate:"gt=0,lt=1"`
	RandomState    int64   `koanf:"random_state"`
}

type DataProcessingConfig struct {
	CategoricalColumns []string `koanf:"categorical_columns" validate:"dive,required"`
	NumericalColumns   []string `koanf:"numerical_columns" validate:"dive,required"`
	SkewnessThreshold  float64  `koanf:"skewness_threshold"`
	NoOfFeatures       int      `koanf:"no_of_features" validate:"gt=0"`
	TargetColumn       string   `koanf:"target_column" validate:"required"`
	DropColumns        []string `koanf:"drop_columns"`
	// FeatureCandidates limits the columns the forest ranks. Empty ranks
	// every non-target column.
	FeatureCandidates []string `koanf:"feature_candidates" validate:"dive,required"`
	// BalanceTest applies SMOTE to the test partition as well.
	BalanceTest      bool  `koanf:"balance_test"`
	SMOTENeighbors   int   `koanf:"smote_neighbors" validate:"gt=0"`
	ForestEstimators int   `koanf:"forest_estimators" validate:"gt=0"`
	RandomState      int64 `koanf:"random_state"`
	// NJobs bounds the worker count of parallel fits; -1 means all CPUs.
	NJobs int `koanf:"n_jobs" validate:"ne=0"`
}

type PathsConfig struct {
	RawFile        string `koanf:"raw_file" validate:"required"`
	TrainFile      string `koanf:"train_file" validate:"required"`
	TestFile       string `koanf:"test_file" validate:"required"`
	ProcessedTrain string `koanf:"processed_train" validate:"required"`
	ProcessedTest  string `koanf:"processed_test" validate:"required"`
	ReportsDir     string `koanf:"reports_dir" validate:"required"`
	ModelOutput    string `koanf:"model_output" validate:"required"`
	LogsDir        string `koanf:"logs_dir"`
	// MetricsFile receives pipeline gauges in Prometheus text format.
	MetricsFile string `koanf:"metrics_file"`
}

type StorageConfig struct {
	Mode         string `koanf:"mode" validate:"oneof=gcs gcs_emulator"`
	EmulatorHost string `koanf:"emulator_host"`
}

type TrackingConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN          string `koanf:"dsn" validate:"required"`
	Experiment   string `koanf:"experiment" validate:"required"`
	ArtifactRoot string `koanf:"artifact_root" validate:"required"`
	// ArtifactBucket, when set, mirrors every logged artifact to GCS.
	ArtifactBucket string `koanf:"artifact_bucket"`
	ArtifactPrefix string `koanf:"artifact_prefix"`
}

type ServingConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxRequestBytes   int64         `koanf:"max_request_bytes" validate:"gt=0"`
	RedisAddr         string        `koanf:"redis_addr"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

type LoggingConfig struct {
	Mode string `koanf:"mode" validate:"oneof=development production"`
}

func defaultConfig() *Config {
	return &Config{
		DataIngestion: DataIngestionConfig{
			TrainRatio:  0.8,
			RandomState: 42,
		},
		DataProcessing: DataProcessingConfig{
			SkewnessThreshold: 5,
			NoOfFeatures:      10,
			TargetColumn:      "booking_status",
			DropColumns:       []string{"Unnamed: 0", "Booking_ID"},
			FeatureCandidates: ServableColumns(),
			BalanceTest:       true,
			SMOTENeighbors:    5,
			ForestEstimators:  100,
			RandomState:       42,
			NJobs:             -1,
		},
		Paths: PathsConfig{
			RawFile:        "artifacts/raw/raw.csv",
			TrainFile:      "artifacts/raw/train.csv",
			TestFile:       "artifacts/raw/test.csv",
			ProcessedTrain: "artifacts/processed/processed_train.csv",
			ProcessedTest:  "artifacts/processed/processed_test.csv",
			ReportsDir:     "artifacts/reports",
			ModelOutput:    "artifacts/models/lgbm_model.json",
			LogsDir:        "logs",
			MetricsFile:    "artifacts/metrics/pipeline.prom",
		},
		Storage: StorageConfig{
			Mode: "gcs",
		},
		Tracking: TrackingConfig{
			Driver:       "sqlite",
			DSN:          "mlruns/tracking.db",
			Experiment:   "hotel-reservation-prediction",
			ArtifactRoot: "mlruns",
		},
		Serving: ServingConfig{
			Addr:              "0.0.0.0:8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxRequestBytes:   1 << 20,
			CacheTTL:          10 * time.Minute,
		},
		Logging: LoggingConfig{
			Mode: "development",
		},
	}
}

// Default returns the built-in defaults. Ingestion fields have no default
// bucket and must be filled before Validate passes.
// ServableColumns are the training columns the serving form can supply.
func ServableColumns() []string {
	return []string{
		"lead_time",
		"no_of_special_requests",
		"avg_price_per_room",
		"arrival_month",
		"arrival_date",
		"market_segment_type",
		"no_of_week_nights",
		"no_of_weekend_nights",
		"type_of_meal_plan",
		"room_type_reserved",
	}
}

func Default() *Config {
	return defaultConfig()
}
