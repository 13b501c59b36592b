package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoala-bot/scoala/pkg/repository"
)

func TestOpenRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, storage := range []string{storageBBolt, storageJSON} {
		t.Run(storage, func(t *testing.T) {
			repo, closeRepo, err := openRepository(ctx, storage, filepath.Join(dir, "homeworks."+storage), "")
			require.NoError(t, err)
			defer func() {
				assert.NoError(t, closeRepo())
			}()

			homework, err := repo.Insert(ctx, repository.Homework{Subject: "Mate", Assignment: "ex. 1"})
			require.NoError(t, err)
			got, err := repo.Get(ctx, homework.ID)
			require.NoError(t, err)
			assert.Equal(t, homework, got)
		})
	}
}

func TestOpenRepositoryErrors(t *testing.T) {
	_, _, err := openRepository(context.Background(), storageMongo, "", "")
	assert.EqualError(t, err, "MONGODBKEY is not set")

	_, _, err = openRepository(context.Background(), "sqlite", "", "")
	assert.EqualError(t, err, `unknown storage: "sqlite", use mongo, bbolt or json`)
}

func TestBotConfigDefaults(t *testing.T) {
	defer viper.Reset()
	initConfig()

	config := botConfig()
	assert.Equal(t, "938097236024360960", config.OwnerID)
	assert.Equal(t, []string{"983612117158600714", "983596968456618004"}, config.AllowedChannels)
	assert.Equal(t, []string{"!", "?", "."}, config.Prefixes)

	t.Setenv("OWNER_ID", "1")
	t.Setenv("PREFIXES", "$ %")
	config = botConfig()
	assert.Equal(t, "1", config.OwnerID)
	assert.Equal(t, []string{"$", "%"}, config.Prefixes)
}
