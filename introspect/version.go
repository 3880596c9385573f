package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// pg_sequences exists since PostgreSQL 10
var pgSequencesMinVersion = version.Must(version.NewVersion("10"))

// ServerVersion returns the server's reported PostgreSQL version.
// Vendor suffixes such as "(Debian 16.2-1.pgdg120+2)" are ignored.
func (i *Inspector) ServerVersion(ctx context.Context) (*version.Version, error) {
	row, err := i.q.FetchOne(ctx, "SHOW server_version")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: server_version returned no rows", ErrIntrospectionFailed)
	}
	return parseServerVersion(row.String("server_version"))
}

func parseServerVersion(raw string) (*version.Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty server_version", ErrIntrospectionFailed)
	}

	v, err := version.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable server_version %q: %w", ErrIntrospectionFailed, raw, err)
	}
	return v, nil
}
