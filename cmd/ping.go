package cmd

import (
	"fmt"

	"wildcats/cache"
	"wildcats/db"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "数据库与Redis连接测试",
	Long:  `测试MySQL连接；REDIS_ENABLED=true 时同时测试Redis并进行基本读写操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		conn, err := db.ConnectDB(ctx, cfg)
		if err != nil {
			return err
		}
		conn.Close()
		fmt.Fprintf(out, "MySQL %s:%s/%s: ok\n", cfg.DBHost, cfg.DBPort, cfg.DBName)

		if !cfg.RedisEnabled {
			fmt.Fprintln(out, "Redis: disabled")
			return nil
		}

		client, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := cache.CheckRedis(ctx, client); err != nil {
			return err
		}
		fmt.Fprintf(out, "Redis %s:%s db %d: ok\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
