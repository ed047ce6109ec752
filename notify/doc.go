// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify delivers poll lifecycle events to notification channels.

A channel is an opaque webhook URL stored on the poll. Four event
classes exist: vote_created, vote_opened, vote_closed, and
runoff_required. Each class fires at most once per poll; the scheduler
records a one-shot marker only after Dispatch confirms delivery, so a
failed delivery is retried on a later tick.

The Dispatcher interface keeps the scheduler channel-agnostic. The
production implementation posts JSON over HTTP with a short timeout;
tests substitute a recording fake.
*/
package notify
