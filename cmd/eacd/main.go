/*
Eacd starts the Eä compile daemon and begins listening for HTTP requests.

Usage:

	eacd [flags]
	eacd [flags] -l [[ADDRESS]:PORT]

If a JWT token secret is not given, one is generated from crypto/rand and
seeded at startup. Every token issued while running this way becomes
invalid as soon as the process exits; this is fine for testing but must
be given explicitly via flag or environment variable in production.

The flags are:

	-v, --version
		Print the daemon version and exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. Defaults to the EACD_LISTEN_ADDRESS environment variable,
		falling back to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWTs. Defaults to the
		EACD_TOKEN_SECRET environment variable, falling back to a random
		secret.

	-k, --key NAME:HASH
		Register an API key allowed to request tokens, as a bcrypt hash.
		May be given multiple times. If none are given, defaults to the
		EACD_API_KEYS environment variable (comma-separated NAME:HASH
		pairs).

	-c, --config FILE
		Load compiler configuration from the given TOML file.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/eac/internal/cache"
	"github.com/dekarrin/eac/internal/compiler"
	"github.com/dekarrin/eac/internal/config"
	"github.com/dekarrin/eac/server"
)

const (
	envListen  = "EACD_LISTEN_ADDRESS"
	envSecret  = "EACD_TOKEN_SECRET"
	envAPIKeys = "EACD_API_KEYS"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Print the daemon version and exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for signing JWTs.")
	flagKeys    = pflag.StringArrayP("key", "k", nil, "Register an API key as NAME:BCRYPT_HASH. May be given multiple times.")
	flagConfig  = pflag.StringP("config", "c", "", "Load compiler configuration from this TOML file.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("eacd %s\n", compiler.Version)
		return
	}

	listenAddr := os.Getenv(envListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	secret := resolveSecret()
	keys := resolveAPIKeys()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("FATAL could not load config: %s", err.Error())
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			log.Printf("WARN  could not open compile cache: %s", err.Error())
		} else {
			defer store.Close()
		}
	}

	srv := server.New(cfg, store, secret, keys)
	log.Printf("INFO  Starting eacd %s on %s...", compiler.Version, listenAddr)
	if err := http.ListenAndServe(listenAddr, srv); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func resolveSecret() []byte {
	secretStr := os.Getenv(envSecret)
	if pflag.Lookup("secret").Changed {
		secretStr = *flagSecret
	}
	if secretStr != "" {
		return []byte(secretStr)
	}
	secret := make([]byte, 64)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("FATAL could not generate token secret: %s", err.Error())
	}
	log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	return secret
}

func resolveAPIKeys() []server.APIKey {
	raw := *flagKeys
	if len(raw) == 0 {
		if env := os.Getenv(envAPIKeys); env != "" {
			raw = strings.Split(env, ",")
		}
	}
	keys := make([]server.APIKey, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 2)
		if len(parts) != 2 {
			log.Fatalf("FATAL invalid API key spec %q, want NAME:BCRYPT_HASH", r)
		}
		keys = append(keys, server.APIKey{Name: parts[0], Hash: parts[1]})
	}
	return keys
}
