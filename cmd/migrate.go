package cmd

import (
	"fmt"

	"wildcats/db"

	"github.com/spf13/cobra"
)

var migrateWithGorm bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建 Playlists 表",
	Long:  `创建 Playlists 表。默认执行 CREATE TABLE IF NOT EXISTS，--gorm 时使用 GORM AutoMigrate。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if migrateWithGorm {
			gdb, err := db.ConnectGormDB(cfg)
			if err != nil {
				return err
			}
			defer db.CloseGormDB(gdb)
			if err := db.AutoMigrateModels(gdb); err != nil {
				return err
			}
		} else {
			conn, err := db.ConnectDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.InitDB(ctx, conn); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Playlists table is ready.")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateWithGorm, "gorm", false, "use GORM AutoMigrate")
	rootCmd.AddCommand(migrateCmd)
}
