// Package coalesce collapses bursts of identical requests into a single
// producer invocation while returning the outcome to every caller.
//
// A call to Do first consults the optional result cache; a fresh prior result
// is returned immediately without joining a debounce window. On a miss, the
// caller joins the pending call for its key (creating it and arming the
// debounce timer if it is the first). When the window elapses, the producer
// runs exactly once; its result is cached on success and then delivered to
// every waiter registered for that key, whether they joined before the timer
// fired or while the producer was in flight. Producer errors are delivered to
// all waiters but never cached: a failed call must be retried, not remembered.
//
// At most one pending call exists per key at any instant. Once the outcome is
// delivered the key is forgotten and a subsequent Do starts a fresh window.
package coalesce
