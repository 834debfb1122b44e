// debug-roll resolves a single seeded roll from the command line and
// prints what the server would have returned, optionally writing the
// replay as an animated WebP.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/dicebox/dicebox-go/internal/phys"
	"github.com/dicebox/dicebox-go/internal/playback"
	"github.com/dicebox/dicebox-go/internal/render"
	"github.com/dicebox/dicebox-go/internal/rng"
	"github.com/dicebox/dicebox-go/internal/sim"
)

func main() {
	seed := flag.String("seed", "", "roll seed (random when empty)")
	nonce := flag.Uint64("nonce", 0, "roll nonce")
	dice := flag.Int("dice", 2, "number of dice")
	out := flag.String("out", "", "write the replay as an animated WebP to this path")
	flag.Parse()

	logger := log.New(os.Stderr, "[debug-roll] ", log.LstdFlags)

	if *seed == "" {
		*seed = rng.RandomSeed()
	}

	physCfg := phys.DefaultConfig()
	scenCfg := sim.DefaultScenarioConfig()
	world := phys.NewWorld(physCfg, *dice, scenCfg.DieHalfExtent)
	resolver := sim.NewResolver(world, sim.DefaultResolverConfig(), scenCfg, logger)

	outcome, err := resolver.Resolve(context.Background(), *seed, *nonce, *dice)
	if err != nil {
		logger.Fatalf("resolve: %v", err)
	}

	fmt.Printf("seed:     %s\n", outcome.Seed)
	fmt.Printf("nonce:    %d\n", outcome.Nonce)
	fmt.Printf("faces:    %v\n", outcome.Faces)
	fmt.Printf("report:   %s\n", outcome.Report)
	fmt.Printf("steps:    %d\n", outcome.Trajectory.Steps())
	fmt.Printf("retries:  %d\n", outcome.Retries)
	fmt.Printf("timedOut: %v\n", outcome.TimedOut)

	if *out == "" {
		return
	}

	renderer := render.New(render.Config{
		Size:        320,
		Supersample: 3,
		Margin:      8,
		ArenaHalfX:  physCfg.ArenaHalfX,
		ArenaHalfZ:  physCfg.ArenaHalfZ,
	})

	sched := &playback.QueueScheduler{}
	player := playback.NewPlayer(sched, logger)
	exp := playback.NewExporter()
	half := scenCfg.DieHalfExtent
	player.Play(outcome, playback.Options{
		Mode: playback.ModeFixedFrame,
		Render: func(poses []sim.Pose) image.Image {
			return renderer.Frame(poses, half)
		},
		Export: exp,
	})
	sched.Drain()

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	if err := exp.EncodeWebP(f); err != nil {
		logger.Fatalf("encode webp: %v", err)
	}
	fmt.Printf("wrote %d frames to %s\n", exp.Len(), *out)
}
