// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one chat session.
//
// The Controller sits between the UI and everything else: it routes input
// to the chat or image endpoint, appends successful exchanges to the
// conversation store, keeps the settings record in sync with the current
// conversation's title, and reports what happened to a Sink.
//
// # Key Types
//
//   - Controller: single-flight request driver
//   - Context: current conversation id, settings snapshot, pending files
//   - Sink: receives rendered messages, notices and state changes
//
// # States
//
// A request moves the controller Idle -> Sending -> Succeeded|Failed -> Idle.
// A request made while another is in flight is dropped, not queued:
//
//	ctl := session.New(client, convs, prefs, session.WithSink(ui))
//	ctl.SendMessage(ctx, "Hello")
//	ctl.SendMessage(ctx, "/image a red cube")
package session
