package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cacheCmd 缓存管理命令
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
	Long:  "Manage application cache, including evicting cached user profiles and artwork owners.",
}

// cacheEvictCmd 清除指定缓存项
var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Evict cached entries",
	Long: `Evict cached user profiles and artwork owner lookups from the configured cache.

Examples:
  colab cache evict --user auth0|abc123
  colab cache evict --artwork 12 --artwork 15`,
	Run: func(cmd *cobra.Command, args []string) {
		users, _ := cmd.Flags().GetStringSlice("user")
		artworks, _ := cmd.Flags().GetUintSlice("artwork")

		if len(users) == 0 && len(artworks) == 0 {
			log.Fatal("Nothing to evict: pass --user or --artwork")
		}

		config.InitConfig()
		provider, err := cache.NewProvider(config.Get())
		if err != nil {
			log.Fatalf("Failed to initialize cache: %v", err)
		}
		defer provider.Close()

		log.Printf("Cache provider: %s", provider.Name())
		n, err := evictKeys(context.Background(), provider, users, artworks)
		if err != nil {
			log.Fatalf("Cache evict failed: %v", err)
		}
		log.Printf("Evicted %d cache entries", n)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheEvictCmd)

	cacheEvictCmd.Flags().StringSlice("user", nil, "User IDs whose cached profile should be evicted")
	cacheEvictCmd.Flags().UintSlice("artwork", nil, "Artwork IDs whose cached owner should be evicted")
}

// evictKeys 删除缓存键，返回实际存在并被删除的数量
func evictKeys(ctx context.Context, provider cache.Provider, users []string, artworks []uint) (int, error) {
	keys := make([]string, 0, len(users)+len(artworks))
	for _, id := range users {
		keys = append(keys, cache.User.BuildID(id))
	}
	for _, id := range artworks {
		keys = append(keys, cache.ArtworkOwner.BuildID(id))
	}

	evicted := 0
	for _, key := range keys {
		exists, err := provider.Exists(ctx, key)
		if err != nil {
			return evicted, fmt.Errorf("failed to check %s: %w", key, err)
		}
		if !exists {
			continue
		}
		if err := provider.Delete(ctx, key); err != nil {
			return evicted, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		evicted++
	}
	return evicted, nil
}
