package cleanblog

import "embed"

// EmbeddedAssets contains the stylesheet shipped with the application,
// served under /static/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
