//go:build mage
// +build mage

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

type Remote mg.Namespace

var (
	buildDir = "bin"
	binName  = "server"
)

// Builds the server for a linux/amd64 target host.
func (Remote) Build() error {
	fmt.Println("Building...")
	env := map[string]string{
		"GOOS":   "linux",
		"GOARCH": "amd64",
	}
	return sh.RunWithV(env, "go", "build", "-o", filepath.Join(buildDir, binName), "./cmd/server.go")
}

// Builds and copies the server binary to the target host over SCP.
// Assumes SSH keys are set up for the host.
func (Remote) Deploy(host string, username string) error {
	mg.Deps(Remote.Build)
	connStr := fmt.Sprintf("%s@%s", username, host)
	deployPath := "/home/" + username + "/hostwatch"
	fmt.Printf("Copying binary via SCP to %s:%s\n", connStr, deployPath)

	if err := sh.Run("ssh", connStr, "mkdir -p", deployPath); err != nil {
		return fmt.Errorf("failed to create deploy path on host: %w", err)
	}
	if err := sh.Run("scp", filepath.Join(buildDir, binName), fmt.Sprintf("%s:%s/%s", connStr, deployPath, binName)); err != nil {
		return fmt.Errorf("failed to deploy to host: %w", err)
	}
	return nil
}

// Starts the server on the target host over SSH. Blocks until it exits.
func (Remote) Start(host string, username string) error {
	mg.Deps(mg.F(Remote.Deploy, host, username))
	client, err := sshClient(username, host)
	if err != nil {
		return fmt.Errorf("failed to create SSH client: %w", err)
	}
	defer client.Close()
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := session.Start("~/hostwatch/server"); err != nil {
		return fmt.Errorf("failed to start server on host: %w", err)
	}
	go func() {
		sig := <-sigChan
		fmt.Println("Received signal:", sig)
		session.Signal(ssh.SIGTERM)
		<-sigChan
		fmt.Println("Force killing server...")
		session.Signal(ssh.SIGKILL)
		session.Close()
		os.Exit(1)
	}()

	session.Stdout = os.Stdout
	session.Stderr = os.Stderr
	if err := session.Wait(); err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			switch exitErr.ExitStatus() {
			case 143, 130: // SIGTERM / SIGINT
				return nil
			default:
				return fmt.Errorf("server exited with unexpected status %d", exitErr.ExitStatus())
			}
		}
		return fmt.Errorf("failed to wait for server to exit: %w", err)
	}
	return nil
}

// Cleans up the build directory.
func (Remote) Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(filepath.Join(buildDir, binName))
}

func sshClient(user, host string) (*ssh.Client, error) {
	var authMethods []ssh.AuthMethod

	conn, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK"))
	if err == nil {
		signers, err := agent.NewClient(conn).Signers()
		if err == nil {
			authMethods = append(authMethods, ssh.PublicKeys(signers...))
		}
	}
	if len(authMethods) == 0 {
		fmt.Println("No SSH keys found...")
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Dev only.
	}
	return ssh.Dial("tcp", host+":22", config)
}
