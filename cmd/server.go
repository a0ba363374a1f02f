package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	log2 "log"
	"net/http"
	"os"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/letterbox/mailbox-data-api/auth"
	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/db"
	"github.com/letterbox/mailbox-data-api/endpoint"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/mailer"
	"github.com/letterbox/mailbox-data-api/rest"
)

// Environment variables prefixed with "MAILBOX_API_" can override settings e.g. "MAILBOX_API_DSN"
const envVarPrefix = "mailbox_api"

var cfgFile string
var logger log.Logger
var cfg *endpoint.DataEndpointConfig

var serverCmd = &cobra.Command{
	Use:   os.Args[0] + " --dsn [DSN] [OPTIONS]",
	Short: "REST endpoints for a mailbox store",
	Args: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("dsn") == "" {
			return errors.New("dsn is required")
		}
		if _, err := db.ParseDialect(viper.GetString("driver")); err != nil {
			return err
		}
		if _, err := createResolver(); err != nil {
			return err
		}
		if _, err := filterOperators(); err != nil {
			return err
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		endpoint := createEndpoint()
		defer endpoint.Close()

		router := createRouter(endpoint)
		listenAndServe(router, viper.GetInt("port"))
	},
}

// Execute starts the REST endpoints
func Execute() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log2.Fatalf("unable to initialize logger: %v", err)
	}

	logger = log.NewZapLogger(zapLogger)

	flags := serverCmd.PersistentFlags()

	// General endpoint flags
	flags.StringVarP(&cfgFile, "config", "c", "", "config file")
	flags.String("driver", string(db.DialectPostgres), "database driver. options: postgres,sqlite3")
	flags.String("dsn", "", "data source name used to connect to the database")
	flags.Bool("migrate", false, "create the mailbox tables on start up")
	flags.Bool("pre-ping", true, "check the connection before every statement")
	flags.Int("port", 8080, "REST endpoint port")
	flags.String("path", endpoint.DefaultPath, "REST endpoint path")
	flags.Bool("request-logging", false, "enable request logging")
	flags.String("access-control-allow-origin", "", "Access-Control-Allow-Origin header value")

	// Filter flags
	flags.Uint64("max-limit", config.DefaultMaxLimit, "maximum page size a client may request")
	flags.Int("filter-cache-size", config.DefaultFilterCacheSize, "number of compiled queries cached, 0 disables the cache")
	flags.StringSlice("filter-extensions", nil,
		"list of enabled extension filter operators. options: ne,gt,lt,ge,le,like,nlike,ilike,nilike,in,or,and")

	// Auth flags
	flags.String("auth-mode", auth.ModeHeader, "how the acting user is resolved. options: header,jwt")
	flags.String("auth-header", auth.DefaultHeader, "header holding the user id in header mode")
	flags.String("jwt-secret", "", "HS256 secret of the bearer tokens in jwt mode")
	flags.Bool("allow-anonymous", false, "serve requests without credentials")

	// Send flags
	flags.String("smtp-host", "", "SMTP relay used to send letters, sending is disabled when empty")
	flags.Int("smtp-port", mailer.DefaultPort, "SMTP relay port")
	flags.String("smtp-domain", "", "domain of the generated message ids")
	flags.String("smtp-username", "", "SMTP AUTH user, authentication is disabled when empty")
	flags.String("smtp-password", "", "SMTP AUTH password")
	flags.String("smtp-tls", mailer.TLSOpportunistic, "STARTTLS policy. options: opportunistic,mandatory,none")
	flags.Duration("smtp-timeout", mailer.DefaultTimeout, "SMTP dial and command timeout")

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "config" {
			viper.BindPFlag(flag.Name, flags.Lookup(flag.Name))
		}
	})

	cobra.OnInitialize(initialize)

	viper.SetEnvPrefix(envVarPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := serverCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createEndpoint() *endpoint.DataEndpoint {
	cfg = endpoint.NewEndpointConfigWithLogger(logger, viper.GetString("driver"), viper.GetString("dsn"))

	ops, err := filterOperators()
	if err != nil {
		logger.Fatal("invalid filter extension", "error", err)
	}

	cfg.
		WithMaxLimit(viper.GetUint64("max-limit")).
		WithFilterCacheSize(viper.GetInt("filter-cache-size")).
		WithFilterOperators(ops).
		WithPrePing(viper.GetBool("pre-ping")).
		WithMigrate(viper.GetBool("migrate"))

	if host := viper.GetString("smtp-host"); host != "" {
		sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     host,
			Port:     viper.GetInt("smtp-port"),
			Domain:   viper.GetString("smtp-domain"),
			Username: viper.GetString("smtp-username"),
			Password: viper.GetString("smtp-password"),
			TLS:      viper.GetString("smtp-tls"),
			Timeout:  viper.GetDuration("smtp-timeout"),
		}, logger)
		if err != nil {
			logger.Fatal("invalid smtp settings", "error", err)
		}
		cfg.WithSender(sender)
	}

	endpoint, err := cfg.NewEndpoint()
	if err != nil {
		logger.Fatal("unable create new endpoint",
			"error", err)
	}

	return endpoint
}

func filterOperators() (config.FilterOperators, error) {
	return config.Operators(getStringSlice("filter-extensions")...)
}

func createResolver() (auth.Resolver, error) {
	return auth.NewResolver(
		viper.GetString("auth-mode"),
		viper.GetString("auth-header"),
		[]byte(viper.GetString("jwt-secret")))
}

func createRouter(endpoint *endpoint.DataEndpoint) http.Handler {
	router := rest.ApiRouter(endpoint.RoutesRest(viper.GetString("path")))
	maybeAddGlobalOptions(router)

	resolver, err := createResolver()
	if err != nil {
		logger.Fatal("invalid auth settings", "error", err)
	}
	return auth.Middleware(resolver, viper.GetBool("allow-anonymous"), logger)(router)
}

func maybeAddRequestLogging(handler http.Handler) http.Handler {
	if viper.GetBool("request-logging") {
		handler = log.NewLoggingHandler(handler, logger)
	}
	return handler
}

func maybeAddCORS(handler http.Handler) http.Handler {
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", value)
			handler.ServeHTTP(w, r)
		})
	}
	return handler
}

func maybeAddGlobalOptions(router *httprouter.Router) {
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Access-Control-Request-Method") != "" {
				header := w.Header()
				header.Set("Access-Control-Allow-Method", r.Header.Get("Access-Control-Request-Method"))
				header.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				header.Set("Access-Control-Allow-Origin", value)
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func initialize() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			logger.Info("using config file",
				"file", viper.ConfigFileUsed())
		}
	}
}

func listenAndServe(handler http.Handler, port int) {
	logger.Info("server listening",
		"port", port,
		"path", viper.GetString("path"))
	handler = maybeAddCORS(maybeAddRequestLogging(handler))
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), handler)
	if err != nil {
		logger.Fatal("unable to start server",
			"port", port,
			"error", err)
	}
}

func getStringSlice(key string) []string {
	value := viper.GetStringSlice(key)
	slice, err := toStringSlice(value)
	if err != nil {
		logger.Fatal("invalid string slice value for setting",
			"error", err,
			"key", key,
			"value", value)
	}
	return slice
}

func toStringSlice(slice []string) ([]string, error) {
	result := make([]string, 0)
	for _, entry := range slice {
		stringReader := strings.NewReader(entry)
		csvReader := csv.NewReader(stringReader)
		split, err := csvReader.Read()
		if err != nil {
			return nil, err
		}
		for _, part := range split {
			if part != "" { // Don't add empty values
				result = append(result, part)
			}
		}
	}
	return result, nil
}
