// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

//go:build windows

package config

import "log/slog"

// WarnInsecurePermissions is a no-op on Windows, which uses ACLs.
func WarnInsecurePermissions(path string) {
	if path != "" {
		slog.Debug("skipping config permission check on windows", "path", path)
	}
}
