package export

import (
	"context"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/pkg/config"
)

// NewBackupSink elige el destino de respaldo: bucket S3 si BACKUP_S3_BUCKET está definido,
// directorio local en otro caso.
func NewBackupSink(ctx context.Context, cfg config.BackupConfig) (app.Sink, error) {
	if cfg.UseS3() {
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Sink(client, cfg.S3Bucket, cfg.S3Prefix, cfg.Keep), nil
	}
	fs, err := NewFileSink(cfg.Dir, cfg.Keep)
	if err != nil {
		return nil, err
	}
	return fs, nil
}
