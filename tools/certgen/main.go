// Package main writes a self-signed development certificate and key for
// serving the API over HTTPS.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/timeledger/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses flags and generates the certificate pair into -dir.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated host names and IPs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}

	certPath := filepath.Join(*dir, "server.crt")
	keyPath := filepath.Join(*dir, "server.key")
	created, err := certgen.EnsureSelfSigned(certPath, keyPath, names)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "certificate written to %s and %s\n", certPath, keyPath)
	} else {
		fmt.Fprintf(out, "%s and %s already exist, nothing to do\n", certPath, keyPath)
	}
	return nil
}
