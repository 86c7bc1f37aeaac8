// Package storage exposes a mirrored directory tree to the rest of mathviz behind an
// allow-list.
//
// A Mirror is rooted with os.Root, so nothing it does can leave the mirror directory.
// On top of that containment every path is sanitized and checked against a Policy:
// paths under a forbidden element are always denied, and everything else must sit
// below one of the allowed prefixes. The root itself may be listed and searched, in
// which case results are filtered by the same policy.
//
// Generated scene scripts, rendered videos and knowledge notes are all written
// through a Mirror.
package storage
