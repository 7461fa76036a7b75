package cmd

import (
	"wildcats/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动歌单 HTTP 服务",
	Long:  `启动歌单服务的HTTP API。REDIS_ENABLED=true 时在数据库前启用Redis缓存。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
