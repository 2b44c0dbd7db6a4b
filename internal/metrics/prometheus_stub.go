//go:build noprom

package metrics

import "errors"

// Binaries built with -tags noprom carry no exporter; asking for one is reported.
func enablePrometheus(addr string) error {
	return errors.New("prometheus exporter not compiled in (built with noprom)")
}
