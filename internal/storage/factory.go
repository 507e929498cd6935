// Package storage builds the configured artifact storage provider.
package storage

import (
	"context"
	"fmt"

	"sceneforge/internal/adapters/storage/gdrive"
	"sceneforge/internal/adapters/storage/localfs"
	"sceneforge/internal/config"
	"sceneforge/internal/ports"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewProvider builds the storage tier selected in the configuration.
// localfs keeps published artifacts under the media directory; gdrive
// uploads them and returns a shareable URL.
func NewProvider(ctx context.Context, cfg config.Config) (ports.StorageProvider, error) {
	switch cfg.Storage.Provider {
	case "localfs":
		return localfs.New(cfg.MediaDir()), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg.Storage.GDrive)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}

func newGDriveProvider(ctx context.Context, cfg config.GDrive) (ports.StorageProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gdrive provider requires client_id, client_secret and refresh_token")
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gdrive service: %w", err)
	}

	return gdrive.NewClient(srv, cfg.FolderID), nil
}
