// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app ties the session store, the completion client and export
// together behind the operations the front ends call.
//
// A send is split in three so a UI can keep its event loop free while the
// request is in flight:
//
//	turn, err := a.BeginTurn(ctx, input)   // on the event loop
//	reply, err := turn.Run(ctx)             // anywhere, e.g. a tea.Cmd
//	result, err := a.FinishTurn(ctx, turn, reply, err) // back on the event loop
//
// Send does all three in one call. Only one turn may be open at a time;
// BeginTurn returns ErrBusy until the open turn is finished.
package app
