package install

import (
	"fmt"
	"os"
	"os/user"
)

// Operator identifies who runs the install, for the audit line in logs.
type Operator struct {
	// Hostname is the machine name the installer runs on.
	Hostname string
	// Username is the system user running the installer.
	Username string
}

// DetectOperator gathers host and user information.
func DetectOperator() (*Operator, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Operator{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
