// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package store

import (
	"testing"
	"time"
)

func TestCredentialStoreLifecycle(t *testing.T) {
	cs := NewMemoryCredentialStore()

	if err := cs.Store("alice", []byte("record-v1")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := cs.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if string(got) != "record-v1" {
		t.Fatalf("Load = %q, want %q", got, "record-v1")
	}

	if err := cs.Delete("alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := cs.Load("alice"); err != ErrNotFound {
		t.Fatalf("Load after Delete err = %v, want ErrNotFound", err)
	}

	if err := cs.Delete("alice"); err != ErrNotFound {
		t.Fatalf("Delete of missing entry err = %v, want ErrNotFound", err)
	}
}

func TestCredentialStoreCopiesOnStoreAndLoad(t *testing.T) {
	cs := NewMemoryCredentialStore()

	record := []byte("record-v1")

	if err := cs.Store("alice", record); err != nil {
		t.Fatalf("Store: %v", err)
	}

	record[0] = 'X'

	got, err := cs.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got[0] == 'X' {
		t.Fatal("Store aliased the caller's slice instead of copying it")
	}

	got[0] = 'Y'

	got2, err := cs.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got2[0] == 'Y' {
		t.Fatal("Load aliased the stored slice instead of copying it")
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	ss := NewMemorySessionStore(10, 0)
	defer ss.Close()

	if err := ss.Store("token-1", []byte("state"), time.Minute); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := ss.Load("token-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if string(got) != "state" {
		t.Fatalf("Load = %q, want %q", got, "state")
	}

	if err := ss.Revoke("token-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := ss.Load("token-1"); err != ErrNotFound {
		t.Fatalf("Load after Revoke err = %v, want ErrNotFound", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ss := NewMemorySessionStore(10, 0)
	defer ss.Close()

	if err := ss.Store("token-1", []byte("state"), time.Millisecond); err != nil {
		t.Fatalf("Store: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := ss.Load("token-1"); err != ErrNotFound {
		t.Fatalf("Load of expired session err = %v, want ErrNotFound", err)
	}
}

func TestSessionStoreCapacity(t *testing.T) {
	ss := NewMemorySessionStore(2, 0)
	defer ss.Close()

	if err := ss.Store("token-1", []byte("a"), time.Minute); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := ss.Store("token-2", []byte("b"), time.Minute); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := ss.Store("token-3", []byte("c"), time.Minute); err != ErrSessionStoreFull {
		t.Fatalf("Store beyond capacity err = %v, want ErrSessionStoreFull", err)
	}

	// Updating an existing token must not be rejected as "full".
	if err := ss.Store("token-1", []byte("a2"), time.Minute); err != nil {
		t.Fatalf("Store (update existing token): %v", err)
	}
}

func TestSessionStoreRevokeByCredential(t *testing.T) {
	ss := NewMemorySessionStore(10, 0)
	defer ss.Close()

	if err := ss.StoreWithCredential("token-1", "alice", []byte("a"), time.Minute); err != nil {
		t.Fatalf("StoreWithCredential: %v", err)
	}

	if err := ss.StoreWithCredential("token-2", "alice", []byte("b"), time.Minute); err != nil {
		t.Fatalf("StoreWithCredential: %v", err)
	}

	if err := ss.StoreWithCredential("token-3", "bob", []byte("c"), time.Minute); err != nil {
		t.Fatalf("StoreWithCredential: %v", err)
	}

	if err := ss.RevokeByCredential("alice"); err != nil {
		t.Fatalf("RevokeByCredential: %v", err)
	}

	if _, err := ss.Load("token-1"); err != ErrNotFound {
		t.Fatal("token-1 survived RevokeByCredential(\"alice\")")
	}

	if _, err := ss.Load("token-2"); err != ErrNotFound {
		t.Fatal("token-2 survived RevokeByCredential(\"alice\")")
	}

	if _, err := ss.Load("token-3"); err != nil {
		t.Fatalf("token-3 (bob's session) was wrongly revoked: %v", err)
	}
}

func TestSessionStoreBackgroundSweep(t *testing.T) {
	ss := NewMemorySessionStore(10, 2*time.Millisecond)
	defer ss.Close()

	if err := ss.Store("token-1", []byte("state"), time.Millisecond); err != nil {
		t.Fatalf("Store: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	ss.mu.Lock()
	_, stillPresent := ss.entries["token-1"]
	ss.mu.Unlock()

	if stillPresent {
		t.Fatal("background sweep did not evict an expired entry")
	}
}
