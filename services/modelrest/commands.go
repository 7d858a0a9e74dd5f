package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/relabs-tech/modelrest/core/backend"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/spf13/cobra"
)

var service Service

var rootCmd = &cobra.Command{
	Use:   "modelrest",
	Short: "REST API for model definitions",
	Long:  "Generates and serves CRUD, search and schema routes for a set of model definitions.",

	// environment first, flags override it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := envdecode.Decode(&service); err != nil {
			return fmt.Errorf("cannot read environment: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("models") {
			service.ModelsFile, _ = flags.GetString("models")
		}
		if flags.Changed("prefix") {
			service.URLPrefix, _ = flags.GetString("prefix")
		}
		if flags.Changed("convenience") {
			service.Convenience, _ = flags.GetBool("convenience")
		}
		if flags.Changed("cors") {
			service.CORS, _ = flags.GetString("cors")
		}
		if flags.Changed("log-level") {
			service.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("port") {
			service.Port, _ = flags.GetInt("port")
		}
		logger.InitLogger(logger.ParseLevel(service.LogLevel))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		router := mux.NewRouter()
		b, closeAll, err := service.build(router)
		if err != nil {
			return err
		}
		defer closeAll()

		rlog := logger.ForComponent("service")
		rlog.Infof("%d routes for %d models", len(b.Routes()), len(b.Registry().Models()))
		addr := ":" + strconv.Itoa(service.Port)
		rlog.Infoln("listen on port", addr)
		return http.ListenAndServe(addr, handlers.ProxyHeaders(router))
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the generated route table",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, closeAll, err := service.build(mux.NewRouter())
		if err != nil {
			return err
		}
		defer closeAll()
		out := cmd.OutOrStdout()
		for _, route := range b.Routes() {
			fmt.Fprintln(out, route.String())
		}
		for _, d := range b.Registry().Models() {
			if d.Err() != nil {
				fmt.Fprintf(out, "\nmodel %s is incomplete: %s\n", d.Name, d.Err())
			}
		}
		return nil
	},
}

func init() {
	pflags := rootCmd.PersistentFlags()
	pflags.String("models", "", "model definition file, overrides MODELS_FILE")
	pflags.String("prefix", "", "url prefix, overrides URL_PREFIX")
	pflags.Bool("convenience", false, "enable convenience routes, overrides CONVENIENCE")
	pflags.String("cors", "", "CORS mode common, model or none, overrides CORS")
	pflags.String("log-level", "", "log level, overrides LOG_LEVEL")
	serveCmd.Flags().Int("port", 0, "port to listen on, overrides PORT")

	rootCmd.AddCommand(serveCmd, routesCmd)
	backend.Version = version
}

// version is set at build time with -ldflags "-X main.version=..."
var version = "unset"
