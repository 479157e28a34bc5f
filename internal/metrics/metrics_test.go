// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ObserveRequest("send_message", OutcomeSuccess, 120*time.Millisecond)
	r.ObserveRequest("send_message", OutcomeError, time.Second)
	r.ObserveRequest("generate_image", OutcomeLoading, time.Second)
	r.StorageFailure("chatHistory")
	r.AttachmentRejected()
	r.SendDropped()
	r.SendDropped()
	r.SetConversations(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.backendRequests.WithLabelValues("send_message", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.backendRequests.WithLabelValues("generate_image", OutcomeLoading)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storageFailures.WithLabelValues("chatHistory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.attachRejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.sendsDropped))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.conversationsKept))
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveRequest("send_message", OutcomeSuccess, time.Second)
		r.StorageFailure("k")
		r.AttachmentRejected()
		r.SendDropped()
		r.SetConversations(1)
	})
	assert.Nil(t, r.Registry())
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.SendDropped()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "chatpad_sends_dropped_total 1"))
}
