// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client wires a reconciliation session for the command-line client.
//
// A [Session] owns a document store (local, or a remote store server through
// the adapter), the change sources feeding the reconciler, the notification
// bus and one projection view per synchronized category. Mutations are
// dispatched to the bus as intents and awaited until the reconciler confirms
// or rejects them.
package client
