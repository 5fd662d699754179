package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	alertsmanager "github.com/arkade-os/marketd/internal/infrastructure/alertsmanager"
	"github.com/arkade-os/marketd/internal/infrastructure/db"
	watermilldb "github.com/arkade-os/marketd/internal/infrastructure/db/watermill"
	timescheduler "github.com/arkade-os/marketd/internal/infrastructure/scheduler/gocron"
	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedDbs = supportedType{
		"inmemory": {},
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
		"redis":    {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
		"none":   {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int

	DbType        string
	DbDir         string
	DbUrl         string
	RedisUrl      string
	SchedulerType string

	AlertManagerURL         string
	ExplorerURL             string
	SettlementTokenDecimals int32
	OtelCollectorEndpoint   string
	OtelPushInterval        int64

	Admin                 domain.Address
	SettlementMint        domain.Address
	TreasuryAccount       domain.Address
	ListingFee            uint64
	CommissionBps         uint16
	Paused                bool
	AuthorizedRelayer     *domain.Address
	AttestationAllowStale bool

	repo      ports.RepoManager
	gate      *application.MarketplaceConfigGate
	scheduler ports.SchedulerService
	alerts    ports.Alerts
	svc       application.Service
}

func (c *Config) String() string {
	clone := *c
	if clone.DbUrl != "" {
		clone.DbUrl = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir                 = btcutil.AppDataDir("marketd", false)
	defaultLogLevel                = 4
	defaultDbType                  = "badger"
	defaultSchedulerType           = "gocron"
	defaultOtelPushInterval        = 10 // seconds
	defaultSettlementTokenDecimals = 6
	defaultCommissionBps           = 250
)

// env returns a list of strings prefixed with `MARKETD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("MARKETD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Record store type (badger, sqlite, postgres, redis, inmemory)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if MARKETD_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis connection url if MARKETD_DB_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	SchedulerType = &cli.StringFlag{
		Usage: "Scheduler finalizing auctions at their deadline (gocron, none)",
		Name:  "scheduler-type", EnvVars: env("SCHEDULER_TYPE"),
		Value: defaultSchedulerType,
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "AlertManager url to notify auction finalizations and settlements to",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}

	ExplorerURL = &cli.StringFlag{
		Usage: "Block explorer url linked in alerts",
		Name:  "explorer-url", EnvVars: env("EXPLORER_URL"),
	}

	SettlementTokenDecimals = &cli.IntFlag{
		Usage: "Decimals of the settlement token, used to format alert amounts",
		Name:  "settlement-token-decimals", EnvVars: env("SETTLEMENT_TOKEN_DECIMALS"),
		Value: defaultSettlementTokenDecimals,
	}

	OtelCollectorEndpoint = &cli.StringFlag{
		Usage: "OpenTelemetry collector endpoint",
		Name:  "otel-collector-endpoint", EnvVars: env("OTEL_COLLECTOR_ENDPOINT"),
	}

	OtelPushInterval = &cli.IntFlag{
		Usage: "OpenTelemetry push interval in seconds",
		Name:  "otel-push-interval", EnvVars: env("OTEL_PUSH_INTERVAL"),
		Value: defaultOtelPushInterval,
	}

	Admin = &cli.StringFlag{
		Usage: "Marketplace admin wallet (base58)",
		Name:  "admin", EnvVars: env("ADMIN"),
	}

	SettlementMint = &cli.StringFlag{
		Usage: "Mint of the settlement token (base58)",
		Name:  "settlement-mint", EnvVars: env("SETTLEMENT_MINT"),
	}

	TreasuryAccount = &cli.StringFlag{
		Usage: "Token account collecting listing fees and commissions (base58)",
		Name:  "treasury-account", EnvVars: env("TREASURY_ACCOUNT"),
	}

	ListingFee = &cli.Uint64Flag{
		Usage: "Fee charged to the seller when listing an asset, in token base units",
		Name:  "listing-fee", EnvVars: env("LISTING_FEE"),
	}

	CommissionBps = &cli.UintFlag{
		Usage: "Commission on the winning bid in basis points (0-10000)",
		Name:  "commission-bps", EnvVars: env("COMMISSION_BPS"),
		Value: uint(defaultCommissionBps),
	}

	Paused = &cli.BoolFlag{
		Usage: "Refuse new listings",
		Name:  "paused", EnvVars: env("PAUSED"),
	}

	AuthorizedRelayer = &cli.StringFlag{
		Usage: "Relayer allowed to submit cross-chain attestations (base58), " +
			"configures the channel at startup if not configured yet",
		Name: "authorized-relayer", EnvVars: env("AUTHORIZED_RELAYER"),
	}

	AttestationAllowStale = &cli.BoolFlag{
		Usage: "Accept attestations older than the recorded one",
		Name:  "attestation-allow-stale", EnvVars: env("ATTESTATION_ALLOW_STALE"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	DbType,
	DbUrl,
	RedisUrl,
	SchedulerType,
	AlertManagerURL,
	ExplorerURL,
	SettlementTokenDecimals,
	OtelCollectorEndpoint,
	OtelPushInterval,
	Admin,
	SettlementMint,
	TreasuryAccount,
	ListingFee,
	CommissionBps,
	Paused,
	AuthorizedRelayer,
	AttestationAllowStale,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(DbType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("db type set to 'redis' but redis url is missing")
		}
	}

	admin, err := parseAddressFlag(c, Admin)
	if err != nil {
		return nil, err
	}
	settlementMint, err := parseAddressFlag(c, SettlementMint)
	if err != nil {
		return nil, err
	}
	treasury, err := parseAddressFlag(c, TreasuryAccount)
	if err != nil {
		return nil, err
	}

	var relayer *domain.Address
	if c.String(AuthorizedRelayer.Name) != "" {
		addr, err := parseAddressFlag(c, AuthorizedRelayer)
		if err != nil {
			return nil, err
		}
		relayer = &addr
	}

	commissionBps := c.Uint(CommissionBps.Name)
	if commissionBps > domain.MaxCommissionBps {
		return nil, fmt.Errorf(
			"commission bps must be at most %d, got %d", domain.MaxCommissionBps, commissionBps,
		)
	}

	return &Config{
		Datadir:                 c.String(Datadir.Name),
		LogLevel:                c.Int(LogLevel.Name),
		DbType:                  c.String(DbType.Name),
		DbDir:                   dbPath,
		DbUrl:                   dbUrl,
		RedisUrl:                redisUrl,
		SchedulerType:           c.String(SchedulerType.Name),
		AlertManagerURL:         c.String(AlertManagerURL.Name),
		ExplorerURL:             c.String(ExplorerURL.Name),
		SettlementTokenDecimals: int32(c.Int(SettlementTokenDecimals.Name)),
		OtelCollectorEndpoint:   c.String(OtelCollectorEndpoint.Name),
		OtelPushInterval:        c.Int64(OtelPushInterval.Name),
		Admin:                   admin,
		SettlementMint:          settlementMint,
		TreasuryAccount:         treasury,
		ListingFee:              c.Uint64(ListingFee.Name),
		CommissionBps:           uint16(commissionBps),
		Paused:                  c.Bool(Paused.Name),
		AuthorizedRelayer:       relayer,
		AttestationAllowStale:   c.Bool(AttestationAllowStale.Name),
	}, nil
}

func parseAddressFlag(c *cli.Context, flag *cli.StringFlag) (domain.Address, error) {
	value := c.String(flag.Name)
	if value == "" {
		return domain.Address{}, fmt.Errorf("missing --%s", flag.Name)
	}
	addr, err := domain.ParseAddress(value)
	if err != nil {
		return domain.Address{}, fmt.Errorf("invalid --%s: %s", flag.Name, err)
	}
	return addr, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func (c *Config) MarketplaceConfig() domain.MarketplaceConfig {
	return domain.MarketplaceConfig{
		Admin:           c.Admin,
		SettlementMint:  c.SettlementMint,
		TreasuryAccount: c.TreasuryAccount,
		ListingFee:      c.ListingFee,
		CommissionBps:   c.CommissionBps,
		Paused:          c.Paused,
	}
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf(
			"scheduler type not supported, please select one of: %s",
			supportedSchedulers,
		)
	}
	if c.SettlementTokenDecimals < 0 {
		return fmt.Errorf("settlement token decimals must not be negative")
	}
	if c.OtelCollectorEndpoint != "" && c.OtelPushInterval <= 0 {
		return fmt.Errorf("otel push interval must be greater than 0")
	}
	if c.SchedulerType == "none" {
		log.Warn("no scheduler set, auctions must be finalized manually")
	}

	if err := c.marketplaceConfig(); err != nil {
		return err
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.alertsService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) marketplaceConfig() error {
	gate := application.NewMarketplaceConfigGate()
	if err := gate.Init(c.MarketplaceConfig()); err != nil {
		return err
	}
	c.gate = gate
	return nil
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.DbType {
	case "inmemory":
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	case "redis":
		dataStoreConfig = []interface{}{c.RedisUrl}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	}, watermilldb.NewInMemoryEventRepository())
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = timescheduler.NewScheduler()
	case "none":
		c.scheduler = nil
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) alertsService() error {
	if c.AlertManagerURL == "" {
		return nil
	}

	c.alerts = alertsmanager.NewService(
		c.AlertManagerURL, c.ExplorerURL, c.SettlementTokenDecimals,
	)
	return nil
}

func (c *Config) appService() error {
	if c.repo == nil || c.gate == nil {
		return fmt.Errorf("config not validated")
	}

	svc, err := application.NewService(
		c.repo, c.gate, c.scheduler, c.alerts, ports.SystemClock(), c.AttestationAllowStale,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
