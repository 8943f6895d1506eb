package control

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	midiControlChange = 0xB
	ccModulation      = 1
	ccVolume          = 7
)

// Target receives user controls. Setters must be safe from any goroutine.
type Target interface {
	SetVolume(volume float64)
	SetSpeed(speed float64)
	ToJSON() []byte
}

// Update applies one command:
//   volume <0-100>
//   speed <cents per second>
//   status
func Update(target Target, command []string, w io.Writer) error {
	if len(command) == 0 || command[0] == "" {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "volume", "speed":
		if len(command) != 2 {
			return fmt.Errorf("invalid command %v", command)
		}
		value, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		if command[0] == "volume" {
			target.SetVolume(value)
		} else {
			target.SetSpeed(value)
		}
	case "status":
		if _, err := w.Write(append(target.ToJSON(), '\n')); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("failed to read commands: %v\n", err)
		}
	}()
	return ch
}

// ReceiveCommands reads commands line by line from r until EOF or ctx is done.
// Bad commands are logged and skipped.
func ReceiveCommands(ctx context.Context, r io.Reader, w io.Writer, target Target) error {
	lines := readLines(ctx, r)
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("receiveCommands() interrupted")
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			command, err := parseCommand(line)
			if err == nil {
				err = Update(target, command, w)
			}
			if err != nil {
				log.Printf("failed to apply %q: %v\n", line, err)
				continue
			}
			log.Printf("received: %s\n", line)
		}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

// ApplyMidi maps control changes to the target:
// CC7 sets the volume, the modulation wheel (CC1) sets the speed with
// the center position meaning 0 and the ends meaning ±maxSpeed.
func ApplyMidi(target Target, data []byte, maxSpeed float64) {
	if len(data) < 3 || data[0]>>4 != midiControlChange {
		return
	}
	value := float64(data[2] & 0x7f)
	switch data[1] {
	case ccVolume:
		target.SetVolume(value * 100 / 127)
	case ccModulation:
		speed := (value - 64) / 64 * maxSpeed
		if value == 127 {
			speed = maxSpeed
		}
		target.SetSpeed(speed)
	}
}

// ReceiveMidi applies MIDI messages until ch is closed or ctx is done.
func ReceiveMidi(ctx context.Context, ch <-chan []byte, target Target, maxSpeed float64) error {
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case data, ok := <-ch:
			if !ok {
				break loop
			}
			ApplyMidi(target, data, maxSpeed)
		}
	}
	log.Println("receiveMidi() ended.")
	return nil
}

// SendReports writes the target status to w at every interval.
func SendReports(ctx context.Context, w io.Writer, target Target, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			if _, err := w.Write(append(target.ToJSON(), '\n')); err != nil {
				return err
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
