package commands

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func readPasswordSecurely(prompt string) (string, error) {
	// readPasswordSecurely reads a password from the terminal without echoing
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Add newline after password input
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// parseSSHURL parses an SSH URL in the format username@hostname:port or username@hostname
// Returns username, hostname, port, and any error
func parseSSHURL(sshURL string) (username, hostname string, port uint, err error) {
	// Default port
	port = 22

	// Check if URL contains port
	if strings.Contains(sshURL, ":") {
		parts := strings.Split(sshURL, ":")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}

		// Parse port
		if portStr := parts[1]; portStr != "" {
			parsedPort, err := strconv.ParseUint(portStr, 10, 32)

			if err != nil {
				return "", "", 0, fmt.Errorf("invalid port number: %s", portStr)
			}

			if parsedPort > 65535 {
				return "", "", 0, fmt.Errorf("port number must be between 0 and 65535")
			}

			port = uint(parsedPort)
		}

		sshURL = parts[0]
	}

	// Parse username@hostname
	if strings.Contains(sshURL, "@") {
		parts := strings.Split(sshURL, "@")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}
		username = parts[0]
		hostname = parts[1]
	} else {
		hostname = sshURL
	}

	if hostname == "" {
		return "", "", 0, fmt.Errorf("hostname cannot be empty")
	}

	return username, hostname, port, nil
}

// resolveActor picks the audit actor: the --actor flag, then HOSTPILOT_ACTOR,
// then the OS username.
func resolveActor(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envActor := os.Getenv("HOSTPILOT_ACTOR"); envActor != "" {
		return envActor
	}

	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}

	return "unknown"
}

// parseArgPairs turns repeated k=v flags into a template argument map.
func parseArgPairs(pairs []string) (map[string]string, error) {
	args := map[string]string{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")

		if !found || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}

		args[key] = value
	}

	return args, nil
}
