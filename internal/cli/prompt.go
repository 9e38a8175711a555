package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptAPIKey asks for the key once. Input is hidden when stdin is a
// terminal.
func promptAPIKey(in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "OPENAI_API_KEY is not set. Enter API key: ")
	var key string
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		key = string(b)
	} else {
		line, err := readLine(in)
		if err != nil {
			return "", err
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("API key is required (set OPENAI_API_KEY in .env)")
	}
	return key, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return line, nil
}
