// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package slug builds deterministic, collision-avoiding poll identifiers.

Ids are rendered from a template of tokens over the poll's title and
dates, then normalized into the alphabet [a-z0-9-]:

	id := slug.BuildID("Friday Lunch?", closeAt, nil, "")
	// "friday-lunch-03-14-2025"

Supported tokens: {title}, {close-mm-dd-yyyy}, {close-yyyy-mm-dd},
{start-mm-dd-yyyy}, {start-yyyy-mm-dd}. The default template is
{title}-{close-mm-dd-yyyy}.

UniqueID resolves collisions against the store by appending -2, -3, …
(truncating the prefix to keep ids within 32 characters), with a
timestamp-suffixed fallback past a retry ceiling so it always
terminates.
*/
package slug
