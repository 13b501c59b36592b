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
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/scoala-bot/scoala/pkg/bot"
	"github.com/scoala-bot/scoala/pkg/discordutil"
	httpHandler "github.com/scoala-bot/scoala/pkg/handlers/http"
	"github.com/scoala-bot/scoala/pkg/handlers/notifier"
	"github.com/scoala-bot/scoala/pkg/helper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discord bot",
	Run:   runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("storage", storageMongo, "homework storage: mongo, bbolt or json")
	runCmd.Flags().String("storage_file", "", "path to bbolt or json storage file (default homeworks.db or homeworks.json)")
	runCmd.Flags().String("status_addr", "", "address of the status http server, empty disables it")
	runCmd.Flags().Duration("sweep_interval", 10*time.Minute, "how often expired homework is removed, 0 disables it")
	runCmd.Flags().String("announce_channel", "", "ID of discord channel where removed homework is announced")

	must(viper.BindPFlags(runCmd.Flags()))
}

func runBot(cmd *cobra.Command, args []string) {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("error inicializing logger: %s \n", err)
		os.Exit(1)
	}
	err = runWrapper(log, cmd, args)
	if err != nil {
		log.Fatal("error running bot", zap.Error(err))
	}
}

func runWrapper(log *zap.Logger, cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := viper.GetString("bot_token")
	if !helper.ValidateToken(token) {
		return errors.New("BOT_TOKEN is missing or is not a discord bot token")
	}

	storage := viper.GetString("storage")
	repository, closeRepo, err := openRepository(ctx, storage, viper.GetString("storage_file"), viper.GetString("mongodb_uri"))
	if err != nil {
		return errors.Wrapf(err, "error inicializing %s repository", storage)
	}
	defer func() {
		err := closeRepo()
		if err != nil {
			log.Error("error closing repository", zap.Error(err))
		}
	}()

	discord, err := discordgo.New("Bot " + token)
	if err != nil {
		return errors.Wrap(err, "error inicializing discord client")
	}

	b := bot.New(log.Sugar(), discord, repository, botConfig())

	var announcer discordutil.Sender
	if channelID := viper.GetString("announce_channel"); channelID != "" {
		announcer = discordutil.ChannelSender{Session: discord, ChannelID: channelID}
	}
	go notifier.NewNotifierHandler(ctx, log, viper.GetDuration("sweep_interval"), repository, announcer).Start()

	if addr := viper.GetString("status_addr"); addr != "" {
		server := manners.NewWithServer(&http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler:      httpHandler.New(log, b, repository),
		})
		go func() {
			<-ctx.Done()
			server.Close()
		}()
		go func() {
			log.Info("Listening on address", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil {
				log.Error("ListenAndServe error", zap.Error(err))
			}
		}()
	}

	err = b.Bot(ctx)
	// systemd handles reload, so we can exit on error.
	if err != nil {
		return errors.Wrap(err, "error running bot")
	}
	return nil
}
