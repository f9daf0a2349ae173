package flashstring

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/wippyai/flashstring/errors"
)

// VerifyPolicy decides how a direct handle that is not inside a read-only
// region is treated when it is resolved.
type VerifyPolicy int32

const (
	// VerifyDegrade checks the handle and substitutes the empty handle when
	// the check fails.
	VerifyDegrade VerifyPolicy = iota
	// VerifyTrust skips the check.
	VerifyTrust
	// VerifyFailFast checks the handle and panics with an *errors.Error when
	// the check fails.
	VerifyFailFast
)

// VerifyEnv names the environment variable read once at startup to seed the
// process-wide policy.
const VerifyEnv = "FLASHSTRING_VERIFY"

var verifyPolicy atomic.Int32

func init() {
	if s, ok := os.LookupEnv(VerifyEnv); ok {
		if p, err := ParseVerifyPolicy(s); err == nil {
			verifyPolicy.Store(int32(p))
		}
	}
}

// SetVerifyPolicy sets the process-wide policy and returns the previous one.
func SetVerifyPolicy(p VerifyPolicy) VerifyPolicy {
	return VerifyPolicy(verifyPolicy.Swap(int32(p)))
}

// CurrentVerifyPolicy returns the process-wide policy.
func CurrentVerifyPolicy() VerifyPolicy {
	return VerifyPolicy(verifyPolicy.Load())
}

// ParseVerifyPolicy parses "trust", "degrade" or "failfast".
func ParseVerifyPolicy(s string) (VerifyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "degrade", "":
		return VerifyDegrade, nil
	case "trust", "release":
		return VerifyTrust, nil
	case "failfast", "fail-fast", "debug":
		return VerifyFailFast, nil
	}
	return VerifyDegrade, errors.New(errors.PhaseParse, errors.KindInvalidInput).
		Value(s).
		Detail("unknown verify policy %q (want trust, degrade or failfast)", s).
		Build()
}

func (p VerifyPolicy) String() string {
	switch p {
	case VerifyTrust:
		return "trust"
	case VerifyFailFast:
		return "failfast"
	default:
		return "degrade"
	}
}
