//go:build mage

// Package main contains Mage build targets for carfacnap developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "carfacnap"
	cmdPkg  = "./cmd/carfacnap"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}

	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}

	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}

	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Lint and then Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build output and intermediate files left by the pipeline.
func Clean() error {
	if err := sh.Rm(binDir); err != nil {
		return err
	}

	patterns := []string{"*-audio.txt", "*-audio.wav", "*.nap.txt", "*.sai.txt"}
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := sh.Rm(m); err != nil {
				return err
			}
			fmt.Println("  removed", m)
		}
	}

	return nil
}
