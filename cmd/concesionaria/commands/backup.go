package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhoicas/concesionaria-api/internal/application/export"
	infraexport "github.com/jhoicas/concesionaria-api/internal/infrastructure/export"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Genera un respaldo JSON en el destino configurado (directorio o S3)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		sink, err := infraexport.NewBackupSink(ctx, e.cfg.Backup)
		if err != nil {
			return out.Error("Destino de respaldo inválido", err, "Revisá BACKUP_DIR o BACKUP_S3_*")
		}
		svc := export.NewService(export.Deps{
			Snapshotter: infraexport.NewSQLSnapshotter(e.db),
			Workbook:    infraexport.ExcelWriter{},
			Sink:        sink,
			Users:       e.users,
			Recorder:    e.recorder,
			Log:         e.log.Component("export"),
		})

		out.Step("generando respaldo")
		name, err := svc.Backup(ctx)
		if err != nil {
			return out.Error("Falló el respaldo", err)
		}
		if e.cfg.Backup.UseS3() {
			out.Success("respaldo subido a s3://%s/%s%s", e.cfg.Backup.S3Bucket, e.cfg.Backup.S3Prefix, name)
		} else {
			out.Success("respaldo guardado en %s", filepath.Join(e.cfg.Backup.Dir, name))
		}
		return nil
	},
}
