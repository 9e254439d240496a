package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	buildPath      = "./build"
	archivesPath   = "./build/archives"
	executableName = "useful"
	versionSymbol  = "github.com/usefulapp/useful/internal/useful.buildVersion"
)

type archiveType int

const (
	archiveTypeTarGz archiveType = iota
	archiveTypeZip
)

type target struct {
	os      string
	arch    string
	armV    int
	archive archiveType
}

func (t target) binaryName() string {
	switch {
	case t.arch == "arm":
		return fmt.Sprintf("%s-%s-armv%d", executableName, t.os, t.armV)
	case t.os == "windows":
		return fmt.Sprintf("%s-%s-%s.exe", executableName, t.os, t.arch)
	}

	return fmt.Sprintf("%s-%s-%s", executableName, t.os, t.arch)
}

var targets = []target{
	{os: "windows", arch: "amd64", archive: archiveTypeZip},
	{os: "darwin", arch: "arm64"},
	{os: "linux", arch: "amd64"},
	{os: "linux", arch: "arm64"},
	{os: "linux", arch: "arm", armV: 7},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("release", flag.ContinueOnError)
	version := flags.String("version", "", "Version to stamp into the binaries, defaults to the latest git tag")
	allowDirty := flags.Bool("allow-dirty", false, "Build even with uncommitted changes")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if !*allowDirty {
		dirty, err := hasUncommittedChanges()
		if err != nil {
			return err
		}

		if dirty {
			return errors.New("there are uncommitted changes, commit, stash or discard them first")
		}
	}

	if *version == "" {
		tag, err := latestTag()
		if err != nil {
			return fmt.Errorf("reading version from git: %w", err)
		}

		*version = tag
	}

	if err := os.RemoveAll(buildPath); err != nil {
		return err
	}

	if err := os.MkdirAll(archivesPath, 0755); err != nil {
		return err
	}

	var checksums strings.Builder

	for _, t := range targets {
		fmt.Printf("Building %s %s for %s/%s\n", executableName, *version, t.os, t.arch)

		archive, err := build(*version, t)
		if err != nil {
			return err
		}

		sum, err := fileChecksum(archive)
		if err != nil {
			return err
		}

		fmt.Fprintf(&checksums, "%s  %s\n", sum, filepath.Base(archive))
	}

	return os.WriteFile(filepath.Join(archivesPath, "checksums.txt"), []byte(checksums.String()), 0644)
}

func hasUncommittedChanges() (bool, error) {
	output, err := exec.Command("git", "status", "--porcelain").CombinedOutput()
	if err != nil {
		return false, err
	}

	return len(output) > 0, nil
}

func latestTag() (string, error) {
	output, err := exec.Command("git", "describe", "--tags", "--abbrev=0").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, output)
	}

	return strings.TrimSpace(string(output)), nil
}

func build(version string, t target) (string, error) {
	name := t.binaryName()
	binaryPath := filepath.Join(buildPath, name)

	cmd := exec.Command(
		"go", "build",
		"-trimpath",
		"-ldflags", fmt.Sprintf("-s -w -X %s=%s", versionSymbol, version),
		"-o", binaryPath,
		".",
	)

	cmd.Env = append(os.Environ(), "GOOS="+t.os, "GOARCH="+t.arch, "CGO_ENABLED=0")
	if t.arch == "arm" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("GOARM=%d", t.armV))
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("building %s: %w\n%s", name, err, output)
	}

	return archiveFile(name, binaryPath, t.archive)
}

func archiveFile(name, binaryPath string, t archiveType) (string, error) {
	var cmd *exec.Cmd
	var archive string

	switch t {
	case archiveTypeZip:
		archive = filepath.Join(archivesPath, strings.TrimSuffix(name, ".exe")+".zip")
		cmd = exec.Command("zip", "-j", archive, binaryPath)
	default:
		archive = filepath.Join(archivesPath, name+".tar.gz")
		cmd = exec.Command("tar", "-C", buildPath, "-czf", archive, name)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("archiving %s: %w\n%s", name, err, output)
	}

	return archive, nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
