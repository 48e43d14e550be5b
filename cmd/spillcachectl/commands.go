package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/spillcache"
	"github.com/unkn0wn-root/spillcache/sqlitestore"
)

// missing is the Get default that tells an absent key apart from a stored nil.
type missing struct{}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print a cached value as JSON",
		ArgsUsage: "<id> <key>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dirty", Usage: "also print the dirty flag"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, key, err := objectKey(cmd, 0)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *sqlitestore.Store) error {
				v := s.Get(id, key, missing{})
				if _, ok := v.(missing); ok {
					return fmt.Errorf("%s %s: not cached", id, key)
				}
				b, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("%s %s: value is not JSON-representable: %w", id, key, err)
				}
				if cmd.Bool("dirty") {
					out(cmd, "%s\t%t\n", b, s.IsDirty(id, key))
					return nil
				}
				out(cmd, "%s\n", b)
				return nil
			})
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "store a JSON value",
		ArgsUsage: "<id> <key> <json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dirty", Usage: "store the value marked dirty"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, key, err := objectKey(cmd, 1)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal([]byte(cmd.Args().Get(2)), &v); err != nil {
				return fmt.Errorf("set: value must be JSON: %w", err)
			}
			return withStore(cmd, func(s *sqlitestore.Store) error {
				s.Set(id, key, v, cmd.Bool("dirty"))
				return nil
			})
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove a cached value",
		ArgsUsage: "<id> <key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, key, err := objectKey(cmd, 0)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *sqlitestore.Store) error {
				s.Remove(id, key)
				return nil
			})
		},
	}
}

func dirtyCommand() *cli.Command {
	return &cli.Command{
		Name:      "dirty",
		Usage:     "print whether a value is dirty (unknown keys are dirty)",
		ArgsUsage: "<id> <key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, key, err := objectKey(cmd, 0)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *sqlitestore.Store) error {
				out(cmd, "%t\n", s.IsDirty(id, key))
				return nil
			})
		},
	}
}

func markCommand() *cli.Command {
	return &cli.Command{
		Name:      "mark",
		Usage:     "mark an existing value dirty, or clean with --clean",
		ArgsUsage: "<id> <key>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clean", Usage: "clear the dirty flag instead"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, key, err := objectKey(cmd, 0)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *sqlitestore.Store) error {
				s.SetDirty(id, key, !cmd.Bool("clean"))
				return nil
			})
		},
	}
}

func idCommand() *cli.Command {
	return &cli.Command{
		Name:  "id",
		Usage: "mint a new object id",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out(cmd, "%s\n", spillcache.NewID())
			return nil
		},
	}
}
