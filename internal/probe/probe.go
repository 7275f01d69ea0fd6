// Package probe asks an rsync binary which version and protocol it speaks.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	versionRe  = regexp.MustCompile(`\bversion\s+v?(\d+(?:\.\d+)*\w*)`)
	protocolRe = regexp.MustCompile(`protocol version\s+(\d+)`)
)

// ErrNoProtocol is returned when the --version banner carries no protocol
// number.
var ErrNoProtocol = errors.New("no protocol version in rsync banner")

// Info describes an rsync binary.
type Info struct {
	Binary   string
	Version  string
	Banner   string // first line of --version output
	Protocol int
}

// Runner executes a program and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Where names the host the runner executes on, for messages.
	Where() string
}

// Check runs "<binary> --version" through r and parses the banner.
func Check(ctx context.Context, r Runner, binary string) (Info, error) {
	out, err := r.Output(ctx, binary, "--version")
	if err != nil {
		return Info{Binary: binary}, fmt.Errorf("run %s --version on %s: %w", binary, r.Where(), err)
	}
	info, err := ParseVersion(out)
	info.Binary = binary
	return info, err
}

// ParseVersion extracts the version and protocol from rsync --version
// output. Both GNU rsync ("rsync  version 3.2.7  protocol version 31") and
// openrsync ("openrsync: protocol version 29") banners are understood.
func ParseVersion(out []byte) (Info, error) {
	var info Info
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if info.Banner == "" && line != "" {
			info.Banner = line
		}
		if info.Protocol == 0 {
			if m := protocolRe.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return info, fmt.Errorf("parse protocol %q: %w", m[1], err)
				}
				info.Protocol = n
			}
		}
		if info.Version == "" {
			// Strip the protocol clause so "protocol version 31" is not
			// mistaken for the binary version.
			rest := protocolRe.ReplaceAllString(line, "")
			if m := versionRe.FindStringSubmatch(rest); m != nil {
				info.Version = m[1]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return info, err
	}
	if info.Protocol == 0 {
		return info, ErrNoProtocol
	}
	return info, nil
}
