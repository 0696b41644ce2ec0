// Package main inspects and edits stored saves offline. Run it only while the
// player is disconnected; an open session overwrites the save on its next
// flush.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/config"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/storage"
	"github.com/cory-johannsen/abyssidle/internal/storage/file"
	"github.com/cory-johannsen/abyssidle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	player := flag.String("player", "", "player (account username) whose save to act on (required)")
	op := flag.String("op", "inspect", "operation: inspect, export, import, or reset")
	path := flag.String("file", "-", "import source file, '-' for stdin")
	flag.Parse()

	if *player == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer closeStore()

	tables, err := content.LoadDir(cfg.Content.Dir)
	if err != nil {
		log.Fatalf("loading content: %v", err)
	}
	game, err := session.NewGame(tables, session.DefaultOptions(), nil)
	if err != nil {
		log.Fatalf("building game: %v", err)
	}

	switch *op {
	case "inspect", "export":
		st := load(ctx, store, game, *player)
		if *op == "export" {
			data, err := state.Export(st)
			if err != nil {
				log.Fatalf("exporting: %v", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
			return
		}
		fmt.Fprintf(os.Stdout, "%s: stage %d, gold %.0f, level %d, kills %d, items %d, prestige %d (essence %d)\n",
			*player, st.Stage, st.Gold, st.Player.Level, st.Kills, len(st.Inventory),
			st.Prestige.Times, st.Prestige.Essence)
	case "import":
		data, err := readSource(*path)
		if err != nil {
			log.Fatalf("reading %s: %v", *path, err)
		}
		st, err := game.Decode(data, time.Now(), dice.NewCryptoSource())
		if err != nil {
			log.Fatalf("decoding save: %v", err)
		}
		blob, err := state.Encode(st)
		if err != nil {
			log.Fatalf("encoding save: %v", err)
		}
		if err := store.WriteSave(ctx, *player, blob); err != nil {
			log.Fatalf("writing save: %v", err)
		}
		fmt.Fprintf(os.Stdout, "imported save for %s at stage %d [%s]\n", *player, st.Stage, time.Since(start))
	case "reset":
		if err := store.DeleteSave(ctx, *player); err != nil {
			log.Fatalf("deleting save: %v", err)
		}
		fmt.Fprintf(os.Stdout, "deleted save for %s [%s]\n", *player, time.Since(start))
	default:
		log.Fatalf("invalid op %q: must be inspect, export, import, or reset", *op)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.SaveStore, func(), error) {
	if cfg.Storage.Backend == config.BackendPostgres {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return pool.Saves(), pool.Close, nil
	}
	store, err := file.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func load(ctx context.Context, store storage.SaveStore, game *session.Game, player string) *state.GameState {
	data, err := store.LoadSave(ctx, player)
	if err != nil {
		log.Fatalf("loading save for %s: %v", player, err)
	}
	st, err := game.Decode(data, time.Now(), dice.NewCryptoSource())
	if err != nil {
		log.Fatalf("decoding save for %s: %v", player, err)
	}
	return st
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
