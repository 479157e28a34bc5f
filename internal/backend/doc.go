// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the chat and image-generation
// server.
//
// The server exposes two JSON endpoints:
//
//	POST /send_message    {message, files[], system_prompt, temperature}
//	                      -> {status, response, timestamp}
//	POST /generate_image  {prompt}
//	                      -> {status: success|loading|..., image_base64, timestamp, message}
//
// Failures come back as typed errors: *HTTPError for non-2xx responses,
// *AppError when the body reports a status other than success, and
// *LoadingError (matching ErrModelLoading) while the image model warms up.
// Nothing is retried; callers decide what the user sees.
package backend
