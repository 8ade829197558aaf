// Command kvd is the HTTP front end for the ignite store: one process, one
// *ignite.Instance, serving PUT/GET/DELETE /keys/{key} for as long as it
// runs. It is the "network server" collaborator spec.md leaves unspecified
// beyond requiring the core to support one in-process owner at a time.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"

	"github.com/ignitedb/ignitedb/internal/httpapi"
	"github.com/ignitedb/ignitedb/pkg/ignite"
	"github.com/ignitedb/ignitedb/pkg/logger"
	"github.com/ignitedb/ignitedb/pkg/options"
)

func main() {
	dataDir := flag.String("dir", options.DefaultDataDir, "store data directory")
	addr := flag.String("addr", ":8080", "address to listen on")
	flag.Parse()

	log := logger.New("kvd")
	ctx := context.Background()

	store, err := ignite.NewInstance(ctx, "kvd", options.WithDataDir(*dataDir))
	if err != nil {
		log.Fatalw("failed to open store", "error", err, "dir", *dataDir)
	}
	defer store.Close(ctx)

	srv := httpapi.New(store, log)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalw("failed to bind listener", "error", err, "addr", *addr)
	}

	log.Infow("kvd listening", "addr", *addr, "dir", *dataDir)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalw("server stopped", "error", err)
	}
}
