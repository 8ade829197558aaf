// Command kvs is a thin CLI front end over the ignite key/value store.
// It opens the store for the duration of a single command and closes it
// before exiting, matching spec.md's "instantiate a store per request"
// allowance for non-server collaborators.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/ignite"
	"github.com/ignitedb/ignitedb/pkg/options"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  kvs set <dir> <key> <value>")
	fmt.Fprintln(os.Stderr, "  kvs get <dir> <key>")
	fmt.Fprintln(os.Stderr, "  kvs rm <dir> <key>")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		usage()
		os.Exit(2)
	}

	cmd, dir := args[0], args[1]
	ctx := context.Background()

	store, err := ignite.NewInstance(ctx, "kvs", options.WithDataDir(dir))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	switch cmd {
	case "set":
		if len(args) != 4 {
			usage()
			os.Exit(2)
		}
		runSet(ctx, store, args[2], args[3])
	case "get":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		runGet(ctx, store, args[2])
	case "rm":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		runRemove(ctx, store, args[2])
	default:
		usage()
		os.Exit(2)
	}
}

func runSet(ctx context.Context, store *ignite.Instance, key, value string) {
	if err := store.Set(ctx, key, []byte(value)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runGet prints "Key not found" and exits 0 on an absent key, per spec.md
// §7's contractual CLI behavior.
func runGet(ctx context.Context, store *ignite.Instance, key string) {
	value, err := store.Get(ctx, key)
	if err != nil {
		if errors.GetErrorCode(err) == errors.ErrorCodeKeyNotFound {
			fmt.Println("Key not found")
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(string(value))
}

// runRemove prints "Key not found" and exits nonzero on an absent key, per
// spec.md §7's contractual CLI behavior — unlike get, this is a failure.
func runRemove(ctx context.Context, store *ignite.Instance, key string) {
	if err := store.Remove(ctx, key); err != nil {
		if errors.GetErrorCode(err) == errors.ErrorCodeKeyNotFound {
			fmt.Println("Key not found")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
