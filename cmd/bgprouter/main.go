// Command bgprouter runs a single BGP-style route server process: it
// learns announcements from a fixed set of neighbors, aggregates them into
// a forwarding table, and relays data packets along the best path.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"bgprouter/internal/config"
	"bgprouter/internal/router"
	"bgprouter/internal/transport"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(os.Args[1:], logger); err != nil {
		logger.WithError(err).Error("bgprouter exiting")
		os.Exit(1)
	}
}

func run(args []string, logger *logrus.Logger) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: bgprouter <asn> <port-neighbor-relationship>...")
	}

	asn, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid asn %q: %w", args[0], err)
	}

	cfg, err := config.New(int32(asn), args[1:])
	if err != nil {
		return err
	}

	tr, err := transport.New(cfg.Ports())
	if err != nil {
		return fmt.Errorf("opening neighbor endpoints: %w", err)
	}
	defer tr.Close()

	logger.Infof("router at AS%d starting up with %d neighbors", cfg.ASN, len(cfg.Neighbors))

	r := router.New(cfg, tr, logger)
	r.Handshake()

	for {
		d, ok := tr.Poll(cfg.PollTimeout)
		if !ok {
			continue
		}
		r.Dispatch(d.Payload)
	}
}
