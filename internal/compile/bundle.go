package compile

import (
	"time"

	"haptune/internal/device"
)

// LoadedEffect is a schedulable vibration effect with its start offset from
// the bundle epoch.
type LoadedEffect struct {
	Effect      device.Effect
	StartOffset time.Duration
}

// LoadedAudio is a decoded clip handle with its start offset.
type LoadedAudio struct {
	Clip        device.Clip
	StartOffset time.Duration
}

// LoadedFile is a compressed audio reference resolved to an absolute path,
// played from file rather than decoded up front.
type LoadedFile struct {
	Path        string
	StartOffset time.Duration
}

// Bundle is the fully resolved output of compiling one signal at one tier.
// It is exclusively owned by whoever requested it: consumed by the scheduler
// or retained by the resource pool until unloaded.
type Bundle struct {
	Effects  []LoadedEffect
	Audios   []LoadedAudio
	Files    []LoadedFile
	Duration time.Duration
}

// Empty reports whether the bundle carries no playable items.
func (b Bundle) Empty() bool {
	return len(b.Effects) == 0 && len(b.Audios) == 0 && len(b.Files) == 0
}

// Release closes every owned clip handle.
func (b Bundle) Release() {
	for _, audio := range b.Audios {
		if audio.Clip != nil {
			_ = audio.Clip.Close()
		}
	}
}
