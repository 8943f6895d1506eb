package audio

import (
	"context"
	"log"
	"strings"

	"gitlab.com/gomidi/rtmididrv"
)

const midiControlChange = 0xB

// ListenToMidiIn forwards control change messages from the MIDI input whose
// name contains portName (the first input when portName is empty).
// The channel is closed when ctx is done or the input cannot be opened.
func ListenToMidiIn(ctx context.Context, portName string) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)
		index := -1
		for i, in := range ins {
			if strings.Contains(in.String(), portName) {
				index = i
				break
			}
		}
		if index < 0 {
			log.Printf("WARN: MIDI IN %q not found\n", portName)
			return
		}
		in := ins[index]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			if err := in.Close(); err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			if !isControlChange(data) {
				return
			}
			msg := make([]byte, 3)
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("WARN: MIDI buffer full, dropped message")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			if err := in.StopListening(); err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

func isControlChange(data []byte) bool {
	return len(data) >= 3 && data[0]>>4 == midiControlChange
}
