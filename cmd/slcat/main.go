// Command slcat is a minimal demonstration client: it connects to a
// SeedLink server, subscribes to one station's selectors, and prints a
// one-line summary of each delivered record. It is a thin collaborator
// over the goslink package, not part of the library itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/EarthScope/goslink"
)

func main() {
	log.SetLevel(log.InfoLevel)

	addr := flag.String("a", goslink.DefaultHost+":"+goslink.DefaultPort, "server address, host:port")
	net := flag.String("net", "GE", "network code")
	sta := flag.String("sta", "WLF", "station code")
	selectors := flag.String("sel", "BH?.D", "space-separated selectors")
	statefile := flag.String("state", "", "state file to recover from / save to on exit")
	flag.Parse()

	client := goslink.NewClient(*addr, nil)
	if err := client.Streams().Add(*net, *sta, *selectors, -1, ""); err != nil {
		fmt.Fprintf(os.Stderr, "could not subscribe to %s.%s: %v\n", *net, *sta, err)
		os.Exit(1)
	}

	if *statefile != "" {
		if err := goslink.RecoverState(*statefile, client.Streams(), nil); err != nil {
			log.Warnf("could not recover state from %s: %v", *statefile, err)
		}
	}

	ctx := context.Background()
	for {
		result, pkt, err := client.Collect(ctx)
		if err != nil {
			log.Errorf("collect error: %v", err)
		}
		switch result {
		case goslink.ResultTerminate:
			if *statefile != "" {
				if err := goslink.SaveState(*statefile, client.Streams(), nil); err != nil {
					log.Warnf("could not save state to %s: %v", *statefile, err)
				}
			}
			return
		case goslink.ResultPacket:
			fmt.Printf("%-2s %-5s seq=%06X type=%s\n", pkt.Network(), pkt.Station(), pkt.SequenceNumber(), pkt.Type())
		}
	}
}
