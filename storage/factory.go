package storage

import (
	"fmt"

	"github.com/anoixa/colab/config"
	log "github.com/sirupsen/logrus"
)

// NewProvider 根据 storage_type 创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = "local"
	}
	log.Printf("[Storage] Initializing storage, type: %s", storageType)

	var (
		provider Provider
		err      error
	)
	switch storageType {
	case "local":
		provider, err = NewLocalStorage(cfg.StorageLocalPath)
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			BucketName:      cfg.MinioBucketName,
			UseSSL:          cfg.MinioUseSSL,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageType, err)
	}

	log.Printf("[Storage] Successfully initialized '%s' storage provider", provider.Name())
	return provider, nil
}
