// Package audio handles raw 16-bit mono PCM: WAV framing, microphone capture
// through a recorder subprocess, and playback through a player subprocess.
//
// Capture and playback use ALSA-style command lines (arecord and aplay by
// default). Any tool that accepts the same -q -t raw -f S16_LE -c 1 -r RATE
// arguments can be configured instead.
package audio
