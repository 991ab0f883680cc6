package main

import (
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"govexec-project/clock"
	"govexec-project/db"
	"govexec-project/events"
	"govexec-project/executor"
	"govexec-project/governance"
	"govexec-project/handlers"
	"govexec-project/logger"
	"govexec-project/metrics"
	"govexec-project/models"
	"govexec-project/oracle"
	"govexec-project/repository"
	"govexec-project/routers"
)

func main() {
	// Load config
	viper.SetConfigFile("config/config.yaml")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}

	appLogFile := viper.GetString("log.app_log_file")
	logLevel := viper.GetString("log.level")

	if err := logger.InitLogger(appLogFile, logLevel); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}

	logger.Logger.Info("Starting governance execution-multisig server...")

	// Connect to LevelDB
	leveldbPath := viper.GetString("leveldb.path")
	ldb, err := db.NewLevelDB(leveldbPath)
	if err != nil {
		logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
	}
	defer ldb.Close()

	// Initialize repository
	repo := repository.NewGovernanceRepository(ldb)

	// Tick source: block-like sequence numbers derived from wall time
	clk := clock.NewIntervalSource(
		viper.GetInt64("chain.genesis_unix"),
		time.Duration(viper.GetInt64("chain.block_interval_seconds"))*time.Second,
	)

	registry := prometheus.NewRegistry()
	bus := events.NewBus()

	// Initialize governance engine with its collaborators
	engine, err := governance.NewEngine(
		repo,
		clk,
		executor.NewExecutor(),
		viper.GetStringSlice("governance.committee"),
		settingsFromConfig(),
		governance.Options{
			Oracle: oracle.NewStaticOracle(
				viper.GetStringMapString("oracle.votes"),
				viper.GetStringMapString("oracle.balances"),
			),
			Bus:     bus,
			Metrics: metrics.New(registry),
		},
	)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize governance engine", zap.Error(err))
	}

	// Initialize HTTP handlers
	h := handlers.NewHandler(engine)

	// Setup router
	r := mux.NewRouter()
	routers.RegisterRoutes(r, h, registry)

	// HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Logger.Info("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", viper.GetInt("server.port")))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	srv.Close()
}

// settingsFromConfig reads the seed governance settings, used only when the
// store holds none yet
func settingsFromConfig() *models.Settings {
	minPower, ok := new(big.Int).SetString(viper.GetString("governance.min_proposer_voting_power"), 10)
	if !ok {
		minPower = new(big.Int)
	}
	return &models.Settings{
		OnlyCommitteeCanPropose: viper.GetBool("governance.only_committee_can_propose"),
		MinTallyApprovals:       uint16(viper.GetUint32("governance.min_tally_approvals")),
		MinParticipation:        viper.GetUint32("governance.min_participation"),
		SupportThreshold:        viper.GetUint32("governance.support_threshold"),
		MinVoteDuration:         viper.GetUint64("governance.min_vote_duration"),
		MinTallyDuration:        viper.GetUint64("governance.min_tally_duration"),
		DAOTokenAddress:         viper.GetString("governance.dao_token_address"),
		MinProposerVotingPower:  minPower,
		CensusStrategyURI:       viper.GetString("governance.census_strategy_uri"),
		RequireTotalPower:       viper.GetBool("governance.require_total_power"),
	}
}
