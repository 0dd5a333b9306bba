// Package fragment holds the storage side of template composition: the
// afero-backed Store that reads fragment files, the read-through Cache keyed
// by normalized absolute path, the InclusionGuard that tracks the active
// inclusion stack, and the rule that turns a directive's path text into a
// fragment path.
package fragment
