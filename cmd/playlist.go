package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"wildcats/cache"
	"wildcats/db"
	"wildcats/model"
	"wildcats/repository"

	"github.com/spf13/cobra"
)

// openStore 打开歌单仓库，返回的函数负责释放连接。测试中会被替换。
var openStore = func(ctx context.Context) (repository.PlaylistRepository, func(), error) {
	conn, err := db.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { conn.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var repo repository.PlaylistRepository = repository.NewMySQLPlaylistRepository(conn)
	if cfg.RedisEnabled {
		client, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		repo = cache.NewPlaylistCache(repo, client, cfg.CacheTTL)
	}
	return repo, closeAll, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

// withStore 打开仓库、执行 fn、关闭连接
func withStore(cmd *cobra.Command, fn func(ctx context.Context, repo repository.PlaylistRepository) error) error {
	ctx := cmd.Context()
	repo, closeFn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, repo)
}

// songCommand 构造 add-song / remove-song，二者只差调用的方法
func songCommand(use, short string, op func(repository.PlaylistRepository) func(context.Context, *model.Playlist, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <playlist-id> <song-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "playlist id")
			if err != nil {
				return err
			}
			songID, err := parseID(args[1], "song id")
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
				p, err := repo.LoadByID(ctx, id)
				if err != nil {
					return err
				}
				if err := op(repo)(ctx, p, songID); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "管理歌单",
}

var (
	createName    string
	createCreator string
	createSongs   []int64
	listCreator   string
)

var playlistCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建歌单",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := model.NewPlaylist(createName, createCreator, createSongs...)
		return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
			if _, err := repo.Create(ctx, p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		})
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <playlist-id>",
	Short: "显示歌单",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "playlist id")
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
			p, err := repo.LoadByID(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		})
	},
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出歌单",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
			playlists, err := repo.List(ctx, listCreator)
			if err != nil {
				return err
			}
			if playlists == nil {
				playlists = []*model.Playlist{}
			}
			return printJSON(cmd.OutOrStdout(), playlists)
		})
	},
}

var playlistRenameCmd = &cobra.Command{
	Use:   "rename <playlist-id> <name>",
	Short: "重命名歌单",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "playlist id")
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
			p, err := repo.LoadByID(ctx, id)
			if err != nil {
				return err
			}
			p.Name = args[1]
			if err := repo.Update(ctx, p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		})
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <playlist-id>",
	Short: "删除歌单",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "playlist id")
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, repo repository.PlaylistRepository) error {
			if err := repo.Delete(ctx, &model.Playlist{ID: id}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playlist %d deleted.\n", id)
			return nil
		})
	},
}

func init() {
	playlistCreateCmd.Flags().StringVar(&createName, "name", "", "playlist name")
	playlistCreateCmd.Flags().StringVar(&createCreator, "creator", "", "creating user")
	playlistCreateCmd.Flags().Int64SliceVar(&createSongs, "songs", nil, "initial song ids, comma separated")
	_ = playlistCreateCmd.MarkFlagRequired("name")
	_ = playlistCreateCmd.MarkFlagRequired("creator")

	playlistListCmd.Flags().StringVar(&listCreator, "creator", "", "only list playlists of this creator")

	playlistCmd.AddCommand(
		playlistCreateCmd,
		playlistShowCmd,
		playlistListCmd,
		playlistRenameCmd,
		playlistDeleteCmd,
		songCommand("add-song", "添加歌曲到歌单末尾", func(r repository.PlaylistRepository) func(context.Context, *model.Playlist, int64) error {
			return r.AddSong
		}),
		songCommand("remove-song", "从歌单中移除歌曲", func(r repository.PlaylistRepository) func(context.Context, *model.Playlist, int64) error {
			return r.RemoveSong
		}),
	)
	rootCmd.AddCommand(playlistCmd)
}
