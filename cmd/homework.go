package cmd

import (
	"context"
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scoala-bot/scoala/pkg/repository"
)

const (
	storageMongo = "mongo"
	storageBBolt = "bbolt"
	storageJSON  = "json"
)

// homeworkCmd is top level command for homework storage manipulation.
var homeworkCmd = &cobra.Command{
	Use:   "homework",
	Short: "Homework storage functions",
}

// readCmd prints the stored homework.
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print homework from storage for debugging",
	Run:   readHomeworks,
}

// migrateCmd copies bbolt or JSON homework into MongoDB.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate bbolt or JSON homework storage to MongoDB",
	Run:   migrateHomeworks,
}

var (
	readStorage     string
	readStorageFile string

	migrateFrom     string
	migrateFromFile string
)

func init() {
	rootCmd.AddCommand(homeworkCmd)
	homeworkCmd.AddCommand(readCmd)
	homeworkCmd.AddCommand(migrateCmd)

	readCmd.Flags().StringVar(&readStorage, "storage", storageMongo, "storage to read: mongo, bbolt or json")
	readCmd.Flags().StringVar(&readStorageFile, "storage_file", "", "path to bbolt or json storage file (default homeworks.db or homeworks.json)")

	migrateCmd.Flags().StringVar(&migrateFrom, "from", storageBBolt, "storage to migrate from: bbolt or json")
	migrateCmd.Flags().StringVar(&migrateFromFile, "from_file", "", "path to bbolt or json storage file (default homeworks.db or homeworks.json)")
}

// openRepository opens the chosen storage backend. The returned func must be
// called once the repository is no longer used.
func openRepository(ctx context.Context, storage, file, mongoURI string) (repository.Repository, func() error, error) {
	switch storage {
	case storageMongo:
		if mongoURI == "" {
			return nil, nil, errors.New("MONGODBKEY is not set")
		}
		mongoRepository, err := repository.NewMongoRepository(ctx, mongoURI)
		if err != nil {
			return nil, nil, err
		}
		return mongoRepository, func() error {
			return mongoRepository.Disconnect(context.Background())
		}, nil
	case storageBBolt:
		if file == "" {
			file = "homeworks.db"
		}
		bboltRepository, err := repository.NewBBoltRepository(file)
		if err != nil {
			return nil, nil, err
		}
		return bboltRepository, bboltRepository.Close, nil
	case storageJSON:
		if file == "" {
			file = "homeworks.json"
		}
		jsonRepository, err := repository.NewJSONRepository(file)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "error inicializing repository file: %s", file)
		}
		return jsonRepository, func() error { return nil }, nil
	}
	return nil, nil, errors.Errorf("unknown storage: %q, use mongo, bbolt or json", storage)
}

func closeRepository(close func() error) {
	err := close()
	if err != nil {
		fmt.Printf("ERROR closing DB: %+v\n", err)
	}
}

func migrateHomeworks(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	if migrateFrom == storageMongo {
		panic("homework is migrated to mongo, pick bbolt or json as the source")
	}
	source, closeSource, err := openRepository(ctx, migrateFrom, migrateFromFile, "")
	if err != nil {
		panic(fmt.Sprintf("error inicializing %s repository: %+v", migrateFrom, err))
	}
	defer closeRepository(closeSource)

	target, closeTarget, err := openRepository(ctx, storageMongo, "", viper.GetString("mongodb_uri"))
	if err != nil {
		panic(fmt.Sprintf("error inicializing mongo repository: %+v", err))
	}
	defer closeRepository(closeTarget)

	homeworks, err := source.List(ctx)
	if err != nil {
		panic(err)
	}
	var written int
	for _, homework := range homeworks {
		// MongoDB assigns its own ids.
		homework.ID = ""
		_, err = target.Insert(ctx, homework)
		if err != nil {
			panic(err)
		}
		written++
	}
	fmt.Printf("WROTE %d homework.\n", written)
	fmt.Printf("Repositories equal? %t\n", len(homeworks) == written)
}

func readHomeworks(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, readStorage, readStorageFile, viper.GetString("mongodb_uri"))
	if err != nil {
		panic(fmt.Sprintf("error inicializing %s repository: %+v", readStorage, err))
	}
	defer closeRepository(closeRepo)

	homeworks, err := repo.List(ctx)
	if err != nil {
		panic(err)
	}
	for _, homework := range homeworks {
		pp.Println(homework)
	}
}
