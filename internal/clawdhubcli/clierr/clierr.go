// Package clierr maps CLI failures to process exit codes, grounded on
// stigmer-stigmer/client-apps/cli/internal/cli/clierr's Handle shape
// (print-and-exit), generalized from gRPC status codes to the registry's
// plain error strings since the registry speaks HTTP/JSON, not gRPC.
package clierr

import (
	"os"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
)

// Handle prints err (if any) and exits the process. Per spec.md §6.3: exit
// code 0 on success, 1 on any failure.
func Handle(err error) {
	if err == nil {
		return
	}
	cliprint.Error("%v", err)
	os.Exit(1)
}
