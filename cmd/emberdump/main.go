// Emberdump - inspect finalized code artifacts from a file or the cache
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/arctany/ember/blob"
	"github.com/arctany/ember/codecache"
	"github.com/arctany/ember/config"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("emberdump")

func main() {
	cachePath := flag.String("cache", "", "Artifact cache database (default from ember.toml)")
	hashArg := flag.String("hash", "", "Load artifact by content hash (hex) from the cache")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: emberdump [options] [artifact-file]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the pool, pointer offsets and comments of a finalized code artifact.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  emberdump build/main.emberbin        # Dump an artifact file\n")
		fmt.Fprintf(os.Stderr, "  emberdump -hash 4fd1…                # Dump a cached artifact\n")
		fmt.Fprintf(os.Stderr, "  emberdump -cache ci.db -hash 4fd1…   # Dump from a specific cache\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *cachePath == "" {
		*cachePath = cfg.CachePath()
	}

	var artifact *blob.Artifact
	switch {
	case *hashArg != "":
		artifact = loadFromCache(*cachePath, *hashArg)
	case flag.NArg() == 1:
		artifact = loadFromFile(flag.Arg(0))
	default:
		flag.Usage()
		os.Exit(2)
	}

	if cfg.Codegen.CheckCodePointer {
		if err := artifact.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("verified artifact %s", artifact.Name)
	}

	dump(artifact)
}

func loadFromFile(path string) *blob.Artifact {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	artifact, err := blob.UnmarshalArtifact(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
	log.Infof("loaded artifact %s from %s", artifact.Name, path)
	return artifact
}

func loadFromCache(cachePath, hexHash string) *blob.Artifact {
	raw, err := hex.DecodeString(hexHash)
	if err != nil || len(raw) != 32 {
		fmt.Fprintf(os.Stderr, "Error: -hash must be 64 hex characters\n")
		os.Exit(2)
	}
	var hash [32]byte
	copy(hash[:], raw)

	store, err := codecache.Open(cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache %s: %v\n", cachePath, err)
		os.Exit(1)
	}
	defer store.Close()

	artifact, err := store.Get(hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading artifact: %v\n", err)
		os.Exit(1)
	}
	log.Infof("loaded artifact %s from cache %s", artifact.Name, cachePath)
	return artifact
}

func dump(a *blob.Artifact) {
	fmt.Printf("artifact %s\n", a.Name)
	fmt.Printf("  id:           %s\n", a.ID)
	fmt.Printf("  hash:         %s\n", hex.EncodeToString(a.Hash))
	fmt.Printf("  instructions: %d bytes\n", len(a.Instructions))

	if len(a.PointerOffsets) > 0 {
		fmt.Printf("  pointer offsets (%d):\n", len(a.PointerOffsets))
		for _, off := range a.PointerOffsets {
			fmt.Printf("    +%#x\n", off)
		}
	}

	if len(a.Pool) > 0 {
		fmt.Printf("  pool (%d entries):\n", len(a.Pool))
		for i, e := range a.Pool {
			fmt.Printf("    [%d] %s\n", i, describeEntry(e))
		}
	}

	if len(a.Comments) > 0 {
		fmt.Printf("  comments (%d):\n", len(a.Comments))
		for _, c := range a.Comments {
			fmt.Printf("    +%#x  %s\n", c.PCOffset, c.Text)
		}
	}
}

func describeEntry(e blob.PoolEntry) string {
	suffix := ""
	if e.Patchable {
		suffix = " (patchable)"
	}
	if e.Value == nil {
		return fmt.Sprintf("type=%d raw=%#x%s", e.Type, e.Raw, suffix)
	}
	return fmt.Sprintf("type=%d value=%s%s", e.Type, describeValue(*e.Value), suffix)
}

func describeValue(v blob.EncodedValue) string {
	switch {
	case v.Str != "":
		return fmt.Sprintf("%q", v.Str)
	case len(v.Words) > 0:
		return fmt.Sprintf("bignum(%d words)", len(v.Words))
	case v.Address != 0:
		return fmt.Sprintf("addr=%#x", v.Address)
	case v.ClassID != 0:
		return fmt.Sprintf("class=%d", v.ClassID)
	case v.Float != 0:
		return fmt.Sprintf("%g", v.Float)
	default:
		return fmt.Sprintf("int=%d", v.Int)
	}
}
