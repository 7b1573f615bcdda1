// Package haptics plays vibration patterns on a VibrationCapability while
// holding a time-bounded WakeResource.
//
// An Engine owns at most one playback. Play cancels the previous playback and
// waits for it to release its wake resource before acquiring a new one, so two
// playbacks never hold the resource at the same time.
//
// Cancellation is cooperative. It is observed only while the engine sleeps
// between pulses; a pulse that has started is never interrupted.
package haptics
