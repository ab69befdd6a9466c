// SPDX-License-Identifier: EPL-2.0

package sound

// Kind is the data source a Sound was created from.
type Kind int

const (
	KindStatic Kind = iota
	KindFile
	KindStreaming
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindFile:
		return "file"
	case KindStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a Sound as seen by its caller.
type State int

const (
	Stopped State = iota
	Starting
	Playing
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// reconcile derives the next state from the last requested one and what the
// engine reports for the voice.
func reconcile(cur State, playing, atEnd bool) State {
	switch cur {
	case Starting:
		if playing {
			return Playing
		}
		if atEnd {
			return Stopped
		}
		return Starting
	case Playing:
		if !playing {
			return Stopped
		}
		return Playing
	case Stopping:
		return Stopped
	default:
		if playing {
			return Playing
		}
		return Stopped
	}
}
