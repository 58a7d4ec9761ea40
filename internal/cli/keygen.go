package cli

import (
	"bufio"
	"dblink/internal/crypto"
	"dblink/internal/crypto/hkdf"
	"dblink/internal/crypto/random"
	"dblink/internal/global"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Generates a link key and writes it hex encoded to a file or stdout
func KeygenMode(commandname string, args []string) {
	var outputPath string
	var force bool
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	outputUsage := fmt.Sprintf("Write the key to this file instead of stdout (usually %s)", global.DefaultKeyPath)
	commandFlags.StringVar(&outputPath, "o", "", outputUsage)
	commandFlags.StringVar(&outputPath, "output", "", outputUsage)
	commandFlags.BoolVar(&force, "f", false, "Overwrite an existing key file without asking")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args)

	err := generateKey(outputPath, force, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generateKey(outputPath string, force bool, input io.Reader, output io.Writer) (err error) {
	key, err := random.Bytes(crypto.KeySize)
	if err != nil {
		return
	}
	defer crypto.Memzero(key)

	encoded := []byte(hex.EncodeToString(key) + "\n")
	defer crypto.Memzero(encoded)

	if outputPath == "" {
		_, err = output.Write(encoded)
		return
	}

	_, statErr := os.Stat(outputPath)
	if statErr == nil && !force {
		var confirmed bool
		confirmed, err = confirm(input, output, fmt.Sprintf("Key file '%s' exists. Overwrite? [y/N]: ", outputPath))
		if err != nil {
			return
		}
		if !confirmed {
			err = fmt.Errorf("refusing to overwrite '%s'", outputPath)
			return
		}
	}

	err = os.WriteFile(outputPath, encoded, 0600)
	if err != nil {
		err = fmt.Errorf("failed to write key file: %w", err)
		return
	}
	fmt.Fprintf(output, "Wrote key %s to %s\n", hkdf.Fingerprint(key), outputPath)
	return
}

// Reads a yes/no answer. Non-interactive stdin counts as no unless it supplies an answer.
func confirm(input io.Reader, output io.Writer, question string) (yes bool, err error) {
	fmt.Fprint(output, question)
	answer, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return
	}
	err = nil
	answer = strings.ToLower(strings.TrimSpace(answer))
	yes = answer == "y" || answer == "yes"
	return
}

// Reads the link passphrase from the controlling terminal without echo
func promptPassphrase() (passphrase []byte, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		err = fmt.Errorf("stdin is not a terminal, configure crypto.key_file or crypto.passphrase")
		return
	}

	fmt.Fprint(os.Stderr, "Link passphrase: ")
	passphrase, err = term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return
	}
	if len(passphrase) == 0 {
		err = fmt.Errorf("empty passphrase")
	}
	return
}
