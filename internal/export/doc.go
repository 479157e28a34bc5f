// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations out as standalone documents.
//
// # Formats
//
//   - md: Markdown, generated images kept inline as data URLs
//   - json: the stored conversation record, indented
//   - html: a self-contained page styled for the light or dark theme
//
// # Usage
//
//	exp, err := export.For("html", &export.Options{Theme: "light"})
//	if err != nil {
//	    return err
//	}
//	path, err := export.ToFile(conv, exp, dir)
package export
