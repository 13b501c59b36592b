package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scoala-bot/scoala/pkg/bot"
)

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scoala",
	Short: "Școală, the discord bot keeping track of homework",
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env_file", "", "file with environment variables (default .env)")
}

func initConfig() {
	var err error
	if envFile == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(envFile)
	}
	if err != nil {
		log.Println("No .env file found")
	}

	defaults := bot.DefaultConfig()
	viper.SetDefault("owner_id", defaults.OwnerID)
	viper.SetDefault("allowed_channels", defaults.AllowedChannels)
	viper.SetDefault("test_guilds", defaults.TestGuilds)
	viper.SetDefault("prefixes", defaults.Prefixes)
	viper.SetDefault("mongodb_uri", "")
	viper.SetDefault("bot_token", "")

	viper.AutomaticEnv()
	must(viper.BindEnv("bot_token", "BOT_TOKEN"))
	must(viper.BindEnv("mongodb_uri", "MONGODBKEY"))
}

// botConfig reads the bot configuration, env variables take a space
// separated list for the slices.
func botConfig() bot.Config {
	return bot.Config{
		OwnerID:         viper.GetString("owner_id"),
		AllowedChannels: viper.GetStringSlice("allowed_channels"),
		TestGuilds:      viper.GetStringSlice("test_guilds"),
		Prefixes:        viper.GetStringSlice("prefixes"),
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
