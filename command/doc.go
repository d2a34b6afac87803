// SPDX-License-Identifier: EPL-2.0

// Package command defers mutations from control goroutines to the audio
// goroutine.
//
// Any goroutine may Push. The audio callback drains the queue once per
// cycle with Process, running every pending command in push order and
// leaving the queue empty. A drain is all or nothing; there is no partial
// drain.
//
// Commands must not push onto the queue that is running them. Such a push
// would either deadlock on the queue lock or slip past the current drain,
// so it is refused with audio.ErrLogic and logged.
package command
