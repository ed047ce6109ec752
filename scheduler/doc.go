// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the poll lifecycle control loop.

One tick executes five passes in order:

 1. auto-close: open polls past their scheduled close time are closed
 2. close-notification: results announced for closed polls, once
 3. open-notification: newly started polls announced, once
 4. tie-runoff: tied results spawn a linked runoff poll, once ever
 5. recurrence-spawn: due recurring groups get their next instance

The loop holds no state between ticks; everything it needs is read
back from the store, so restarting the process mid-cycle is safe. The
store mutations behind each pass are conditional updates, which makes
every pass idempotent and safe against concurrent admin actions on the
same polls.

Notification one-shot flags are set only after the dispatcher confirms
delivery. A failed delivery leaves the flag unset and the poll shows
up again next tick.

Tests construct the scheduler with a fake dispatcher and call Tick
directly with a chosen instant instead of starting the timer loop.
*/
package scheduler
