package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		RollbarToken string

		Solver SolverConfig
		Stub   StubConfig
	}

	// SolverConfig points the client at the remote scheduling service.
	SolverConfig struct {
		BaseURL        string
		Algorithm      string // "graph" | "simple"
		RequestTimeout time.Duration
	}

	// StubConfig configures the local development solver (apps/solverstub).
	StubConfig struct {
		Addr               string
		SecretKey          string
		JWTExpirationDelta time.Duration
		AdminUsername      string
		AdminPassword      string
		ShutdownTimeout    time.Duration
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Examplan")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("solverBaseURL", "https://localhost:8443")
	conf.SetDefault("solverAlgorithm", "graph")
	conf.SetDefault("solverRequestTimeout", 30*time.Second)
	conf.SetDefault("stubAddr", ":8443")
	conf.SetDefault("stubSecretKey", "x)#*c2(#yg4h^$cegm2emy-poq5-wer)enb$+57=dz&uoxh2(h!")
	conf.SetDefault("stubJwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("stubAdminUsername", "admin")
	conf.SetDefault("stubAdminPassword", "")
	conf.SetDefault("stubShutdownTimeout", 5*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     testMode,
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
		Solver: SolverConfig{
			BaseURL:        conf.GetString("solverBaseURL"),
			Algorithm:      conf.GetString("solverAlgorithm"),
			RequestTimeout: conf.GetDuration("solverRequestTimeout"),
		},
		Stub: StubConfig{
			Addr:               conf.GetString("stubAddr"),
			SecretKey:          conf.GetString("stubSecretKey"),
			JWTExpirationDelta: conf.GetDuration("stubJwtExpirationDelta"),
			AdminUsername:      conf.GetString("stubAdminUsername"),
			AdminPassword:      conf.GetString("stubAdminPassword"),
			ShutdownTimeout:    conf.GetDuration("stubShutdownTimeout"),
		},
	}
}
