package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/braintree/manners"
	open "github.com/pbnj/go-open"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	httpHandler "github.com/scoala-bot/scoala/pkg/handlers/http"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Serve the homework status pages without the bot and open them in a browser",
	Run:   runStatus,
}

var (
	addr              string
	statusStorage     string
	statusStorageFile string
	noBrowser         bool
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "address to listen on")
	statusCmd.Flags().StringVar(&statusStorage, "storage", storageMongo, "homework storage: mongo, bbolt or json")
	statusCmd.Flags().StringVar(&statusStorageFile, "storage_file", "", "path to bbolt or json storage file (default homeworks.db or homeworks.json)")
	statusCmd.Flags().BoolVar(&noBrowser, "no_browser", false, "do not open the web browser")
}

// processUptime is the uptime of this process, it stands in for the bot.
type processUptime time.Time

func (p processUptime) Uptime() time.Duration {
	return time.Since(time.Time(p))
}

func runStatus(cmd *cobra.Command, args []string) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("error inicializing logger: %v", err))
	}
	signalChan := make(chan os.Signal, 1)
	// Notify signalChan on SIGINT and SIGTERM.
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	repository, closeRepo, err := openRepository(context.Background(), statusStorage, statusStorageFile, viper.GetString("mongodb_uri"))
	if err != nil {
		logger.Fatal("error inicializing repository", zap.String("storage", statusStorage), zap.Error(err))
	}
	defer closeRepository(closeRepo)

	handler := httpHandler.New(logger, processUptime(time.Now()), repository)
	server := manners.NewWithServer(&http.Server{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Handler:      handler,
	})

	go func() {
		for s := range signalChan {
			logger.Info(fmt.Sprintf("Captured %v. Exiting...", s))
			server.Close()
		}
	}()

	if !noBrowser {
		// Open default web browser after 1s.
		time.AfterFunc(1*time.Second, func() {
			openAddr := fmt.Sprintf("http://%s/homeworks", addr)
			logger.Info("Opening browser at address", zap.String("addr", openAddr))
			err := open.Open(openAddr)
			if err != nil {
				logger.Error("Error opening browser", zap.Error(err))
			}
		})
	}

	logger.Info("Listening on address", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		logger.Error("ListenAndServe error", zap.Error(err))
	}
}
