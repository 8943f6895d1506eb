package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jinjor/shepard-glissando/src/audio"
	"github.com/jinjor/shepard-glissando/src/control"
	"github.com/jinjor/shepard-glissando/src/glissando"
	"golang.org/x/sync/errgroup"
)

var (
	volume        = flag.Float64("volume", 50, "output volume (0-100)")
	speed         = flag.Float64("speed", 100, "glissando speed in cents per second, negative to fall")
	channels      = flag.Int("channels", 2, "number of output channels (1 or 2)")
	voices        = flag.String("voices", "", `voices as JSON, e.g. [{"octave":0,"channel":0,"waveform":"sine"}] (default: one sine per octave)`)
	controlPeriod = flag.Duration("control-period", 10*time.Millisecond, "interval between control frames")
	midiIn        = flag.String("midi", "", "listen to the MIDI input whose name contains this (\"*\" for the first one)")
	maxSpeed      = flag.Float64("max-speed", 1200, "speed at the ends of the modulation wheel")
	report        = flag.Duration("report", 0, "print the state at this interval (0 to disable)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := glissando.NewConfig()
	config.Volume = *volume
	config.Speed = *speed
	config.ControlPeriod = *controlPeriod
	specs := glissando.DefaultVoiceSpecs(len(config.Amps) - 1)
	if *voices != "" {
		var err error
		specs, err = glissando.ParseVoiceSpecs([]byte(*voices))
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}

	stage, err := audio.NewStage(*channels)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer stage.Close()

	controller, err := glissando.NewController(stage, stage, specs, config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer controller.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stage.Start(gctx)
	})
	g.Go(func() error {
		return controller.Run(gctx)
	})
	g.Go(func() error {
		err := control.ReceiveCommands(gctx, os.Stdin, os.Stdout, controller)
		// stdin closed: keep playing until a signal arrives
		<-gctx.Done()
		return err
	})
	if *midiIn != "" {
		portName := *midiIn
		if portName == "*" {
			portName = ""
		}
		g.Go(func() error {
			return control.ReceiveMidi(gctx, audio.ListenToMidiIn(gctx, portName), controller, *maxSpeed)
		})
	}
	if *report > 0 {
		g.Go(func() error {
			return control.SendReports(gctx, os.Stdout, controller, *report)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}
