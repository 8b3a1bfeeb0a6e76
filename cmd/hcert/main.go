package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/blocky/hcert"
	"github.com/blocky/hcert/pkg/hcert_error"
)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(1)
	default:
		slog.Error(err.Error(), "kind", hcert_error.KindOf(err).String())
		os.Exit(2)
	}
}

func run(args []string, stdout io.Writer, stderr io.Writer) error {
	flags := flag.NewFlagSet("hcert", flag.ContinueOnError)
	flags.SetOutput(stderr)
	fCertificate := flags.String("certificate", "", "Health certificate as scanned, optionally HC1: prefixed")
	fTrust := flags.String("trust", "", "PEM file with the document signer certificates")
	fFirst := flags.String("first", "", "First name the holder must match")
	fLast := flags.String("last", "", "Last name the holder must match")
	fTime := flags.String("time", "", "RFC 3339 time to verify at, defaults to now")
	fSkipSig := flags.Bool("skipsig", false, "Decode without checking the signature")

	err := flags.Parse(args)
	if err != nil {
		return errUsage
	}

	if "" == *fCertificate || ("" == *fTrust && !*fSkipSig) {
		flags.PrintDefaults()
		return errUsage
	}

	options := []hcert.VerifierConfigOption{
		hcert.WithSkipSignature(*fSkipSig),
	}

	if "" != *fTrust {
		pemCerts, err := os.ReadFile(*fTrust)
		if err != nil {
			return fmt.Errorf("reading trust file: %w", err)
		}
		trustList := hcert.NewTrustList()
		_, err = trustList.AddPEMCertificates(pemCerts)
		if err != nil {
			return fmt.Errorf("loading trust file: %w", err)
		}
		options = append(options, hcert.WithKeyResolver(trustList))
	}

	if "" != *fFirst || "" != *fLast {
		options = append(options, hcert.WithPerson(&hcert.Person{
			FirstName: *fFirst,
			LastName:  *fLast,
		}))
	}

	if "" != *fTime {
		at, err := time.Parse(time.RFC3339, *fTime)
		if err != nil {
			return fmt.Errorf("parsing time: %w", err)
		}
		options = append(options, hcert.WithTime(at))
	}

	verifier, err := hcert.NewVerifier(options...)
	if err != nil {
		return fmt.Errorf("creating verifier: %w", err)
	}

	res, err := verifier.Verify(*fCertificate)
	if err != nil {
		return err
	}

	enc, err := json.Marshal(res.Document)
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	fmt.Fprintf(stdout, "%v\n", string(enc))
	return nil
}
