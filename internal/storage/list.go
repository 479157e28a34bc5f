// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"

	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// =============================================================================
// LISTING
// =============================================================================

// FormatList renders conversations as a fixed-width table for the CLI.
func FormatList(convs []*model.Conversation) string {
	if len(convs) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString(util.PadWidth("ID", 12) + " " + util.PadWidth("Updated", 16) + " " +
		util.PadWidth("Msgs", 5) + " Title\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")

	for _, c := range convs {
		sb.WriteString(util.PadWidth(c.ID, 12) + " " +
			util.PadWidth(c.Timestamp.Local().Format("2006-01-02 15:04"), 16) + " " +
			util.PadWidth(strconv.Itoa(len(c.Messages)), 5) + " " +
			util.ClipWidth(util.SingleLine(c.Title), 36) + "\n")
	}
	return sb.String()
}
