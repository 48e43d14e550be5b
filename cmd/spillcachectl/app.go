package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/spillcache/codec"
	zaplog "github.com/unkn0wn-root/spillcache/log/zap"
	"github.com/unkn0wn-root/spillcache/sqlitestore"
)

// NewApp builds the spillcachectl command tree.
func NewApp() *cli.Command {
	app := &cli.Command{
		Name:  "spillcachectl",
		Usage: "inspect and edit a spillcache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path of the cache database",
				Value:   defaultDBPath(),
				Sources: cli.EnvVars("SPILLCACHE_DB"),
			},
			&cli.StringFlag{
				Name:  "codec",
				Usage: "value encoding: typed, msgpack, json, cbor or protobuf",
				Value: "typed",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			getCommand(),
			setCommand(),
			rmCommand(),
			dirtyCommand(),
			markCommand(),
			idCommand(),
		},
	}

	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}
	return app
}

// defaultDBPath resolves os.UserCacheDir()/spillcache/cache.db, falling back
// to the working directory when no cache directory is known.
func defaultDBPath() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "spillcache", "cache.db")
	}
	return "cache.db"
}

func codecFor(name string) (codec.Codec[any], error) {
	switch name {
	case "typed", "":
		return codec.Typed{}, nil
	case "msgpack":
		return codec.Msgpack[any]{}, nil
	case "json":
		return codec.JSON[any]{}, nil
	case "cbor":
		c, err := codec.NewCBOR[any](false)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "protobuf":
		return codec.Protobuf{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// withStore opens the database named by the global flags, runs fn and closes
// the store, so every queued write lands before the command returns.
func withStore(cmd *cli.Command, fn func(s *sqlitestore.Store) error) (err error) {
	c, err := codecFor(cmd.String("codec"))
	if err != nil {
		return err
	}
	zl, err := newLogger(cmd.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	s, err := sqlitestore.Open(sqlitestore.Options{
		Path:   cmd.String("db"),
		Codec:  c,
		Logger: zaplog.New(zl),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// objectKey reads the "<id> <key>" positional pair shared by most commands.
func objectKey(cmd *cli.Command, extra int) (uuid.UUID, string, error) {
	want := 2 + extra
	if cmd.NArg() != want {
		return uuid.Nil, "", fmt.Errorf("%s: expected %d arguments, got %d", cmd.Name, want, cmd.NArg())
	}
	id, err := uuid.Parse(cmd.Args().Get(0))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: bad object id: %w", cmd.Name, err)
	}
	return id, cmd.Args().Get(1), nil
}

func out(cmd *cli.Command, format string, a ...any) {
	fmt.Fprintf(cmd.Root().Writer, format, a...)
}
