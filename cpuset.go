package twine

import (
	"os"
	"strconv"
	"strings"
)

// isolatedCPUPath is the sysfs file read by the default IsolatedCPUSource,
// matching the original's hardcoded std::ifstream("/sys/devices/system/cpu/isolated").
const isolatedCPUPath = "/sys/devices/system/cpu/isolated"

// IsolatedCPUSource reads the raw isolated-CPU list text. Reading that list
// from the OS is an external collaborator, not core logic; this interface is
// the seam a caller (or a test) substitutes through, via
// WithIsolatedCPUSource.
type IsolatedCPUSource interface {
	Read() (string, error)
}

// osIsolatedCPUSource is the default IsolatedCPUSource, reading the sysfs
// isolated-CPU list.
type osIsolatedCPUSource struct{}

func (osIsolatedCPUSource) Read() (string, error) {
	data, err := os.ReadFile(isolatedCPUPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseIsolatedCPUs parses the isolated-CPU text format: a single line of
// comma-separated tokens, each either a decimal integer or two decimal
// integers joined by '-' denoting an inclusive range. Whitespace within a
// token is rejected. This is core logic (unlike the I/O that produces the
// input text) and is the direct Go port of ParseData/SplitStringToArray in
// worker_pool_implementation.h.
func ParseIsolatedCPUs(data string) ([]int, error) {
	line := strings.TrimSpace(data)
	if line == "" {
		return nil, errInvalidConfig("isolated CPU list is empty")
	}

	var result []int
	for _, token := range strings.Split(line, ",") {
		if token == "" || strings.ContainsAny(token, " \t\n\r") {
			return nil, errInvalidConfig("malformed isolated CPU token: " + strconv.Quote(token))
		}

		parts := strings.Split(token, "-")
		switch len(parts) {
		case 1:
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, errInvalidConfig("malformed isolated CPU token: " + strconv.Quote(token))
			}
			result = append(result, n)

		case 2:
			start, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, errInvalidConfig("malformed isolated CPU range: " + strconv.Quote(token))
			}
			stop, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, errInvalidConfig("malformed isolated CPU range: " + strconv.Quote(token))
			}
			if start > stop {
				return nil, errInvalidConfig("malformed isolated CPU range: " + strconv.Quote(token))
			}
			for i := start; i <= stop; i++ {
				result = append(result, i)
			}

		default:
			return nil, errInvalidConfig("malformed isolated CPU token: " + strconv.Quote(token))
		}
	}

	return result, nil
}

// DenormalHandler flushes denormal floating point numbers to zero on the
// calling thread. Denormals-to-zero CPU register manipulation is an
// external collaborator, not core logic; the default implementation is a
// documented no-op, left for a caller to replace via WithDenormalHandler
// with a platform-specific implementation (e.g. setting MXCSR's FTZ/DAZ
// bits on amd64) if denormal performance matters for their callback
// workload.
type DenormalHandler interface {
	FlushToZero()
}

// noopDenormalHandler is the default DenormalHandler.
type noopDenormalHandler struct{}

func (noopDenormalHandler) FlushToZero() {}
